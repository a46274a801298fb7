package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()
	if cfg.HTTP.Addr != ":3000" {
		t.Errorf("addr: got %s", cfg.HTTP.Addr)
	}
	if cfg.Phone.DefaultCountryPrefix != "212" || cfg.Phone.MinInternationalDigits != 12 {
		t.Errorf("phone defaults: %+v", cfg.Phone)
	}
	if cfg.Business.AlertDelayMs != 3000 {
		t.Errorf("alert delay: got %d", cfg.Business.AlertDelayMs)
	}
	if cfg.QR.RefreshSeconds != 30 {
		t.Errorf("qr refresh: got %d", cfg.QR.RefreshSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WABRIDGE_HTTP_ADDR", ":9000")
	t.Setenv("WABRIDGE_COUNTRY_PREFIX", "49")
	t.Setenv("WABRIDGE_ALERT_DELAY_MS", "500")
	t.Setenv("WABRIDGE_TUNNEL_MODE", "TAILSCALE")

	cfg := defaults()
	applyEnv(&cfg)
	cfg.Validate()

	if cfg.HTTP.Addr != ":9000" {
		t.Errorf("addr: got %s", cfg.HTTP.Addr)
	}
	if cfg.Phone.DefaultCountryPrefix != "49" {
		t.Errorf("prefix: got %s", cfg.Phone.DefaultCountryPrefix)
	}
	if cfg.Business.AlertDelayMs != 500 {
		t.Errorf("delay: got %d", cfg.Business.AlertDelayMs)
	}
	if cfg.Tunnel.Mode != "tailscale" {
		t.Errorf("tunnel mode: got %s", cfg.Tunnel.Mode)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := "[http]\naddr = \":8080\"\n\n[business]\nnumber = \"+10000000000\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WABRIDGE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("addr from file: got %s", cfg.HTTP.Addr)
	}
	if cfg.Business.Number != "+10000000000" {
		t.Errorf("business number from file: got %s", cfg.Business.Number)
	}
	// Unset sections keep defaults.
	if cfg.Business.AlertDelayMs != 3000 {
		t.Errorf("delay default: got %d", cfg.Business.AlertDelayMs)
	}
}

func TestValidateClamps(t *testing.T) {
	cfg := defaults()
	cfg.Business.AlertDelayMs = -1
	cfg.Gateway.TimeoutSeconds = 0
	cfg.QR.Size = 1
	cfg.Tunnel.Mode = "ngrok"
	cfg.Validate()

	if cfg.Business.AlertDelayMs != 3000 {
		t.Errorf("delay clamp: got %d", cfg.Business.AlertDelayMs)
	}
	if cfg.Gateway.TimeoutSeconds != 20 {
		t.Errorf("timeout clamp: got %d", cfg.Gateway.TimeoutSeconds)
	}
	if cfg.QR.Size != 256 {
		t.Errorf("qr size clamp: got %d", cfg.QR.Size)
	}
	if cfg.Tunnel.Mode != "off" {
		t.Errorf("tunnel clamp: got %s", cfg.Tunnel.Mode)
	}
}
