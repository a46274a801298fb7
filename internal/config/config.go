package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for the WhatsApp form bridge.
type Config struct {
	HTTP     HTTPConfig     `toml:"http"`
	Phone    PhoneConfig    `toml:"phone"`
	Business BusinessConfig `toml:"business"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Webhook  WebhookConfig  `toml:"webhook"`
	QR       QRConfig       `toml:"qr"`
	Store    StoreConfig    `toml:"store"`
	Tunnel   TunnelConfig   `toml:"tunnel"`
}

type HTTPConfig struct {
	Addr string `toml:"addr"`
}

type PhoneConfig struct {
	DefaultCountryPrefix   string `toml:"default_country_prefix"`
	MinInternationalDigits int    `toml:"min_international_digits"`
}

type BusinessConfig struct {
	// Number is the internal account that receives the deferred alert for
	// every handled form submission.
	Number       string `toml:"number"`
	AlertDelayMs int    `toml:"alert_delay_ms"`
}

type GatewayConfig struct {
	StorePath      string `toml:"store_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type WebhookConfig struct {
	// Secret enables HMAC-SHA256 validation of form webhook payloads when set.
	Secret string `toml:"secret"`
}

type QRConfig struct {
	RefreshSeconds int `toml:"refresh_seconds"`
	Size           int `toml:"size"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type TunnelConfig struct {
	Mode string `toml:"mode"` // "off" or "tailscale"
}

func defaults() Config {
	home := os.Getenv("HOME")
	dataDir := filepath.Join(home, ".config", "wa-form-bridge")
	return Config{
		HTTP: HTTPConfig{Addr: ":3000"},
		Phone: PhoneConfig{
			DefaultCountryPrefix:   "212",
			MinInternationalDigits: 12,
		},
		Business: BusinessConfig{
			Number:       "+212770063593",
			AlertDelayMs: 3000,
		},
		Gateway: GatewayConfig{
			StorePath:      filepath.Join(dataDir, "session.db"),
			TimeoutSeconds: 20,
		},
		QR: QRConfig{
			RefreshSeconds: 30,
			Size:           256,
		},
		Store: StoreConfig{
			Path: filepath.Join(dataDir, "messages.db"),
		},
		Tunnel: TunnelConfig{Mode: "off"},
	}
}

// Load reads configuration from the TOML config file (if it exists) and
// applies environment variable overrides. Env vars always win.
//
// Config file resolution: WABRIDGE_CONFIG env var → ~/.config/wa-form-bridge/config.toml → skip.
func Load() (*Config, error) {
	cfg := defaults()

	path := configPath()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return nil, err
			}
		}
	}

	applyEnv(&cfg)
	cfg.Validate()
	return &cfg, nil
}

func configPath() string {
	if p := os.Getenv("WABRIDGE_CONFIG"); p != "" {
		return expandHome(p)
	}
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "wa-form-bridge", "config.toml")
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("WABRIDGE_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	if v := os.Getenv("WABRIDGE_COUNTRY_PREFIX"); v != "" {
		cfg.Phone.DefaultCountryPrefix = v
	}
	if v := os.Getenv("WABRIDGE_MIN_INTL_DIGITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Phone.MinInternationalDigits = n
		}
	}

	if v := os.Getenv("WABRIDGE_BUSINESS_NUMBER"); v != "" {
		cfg.Business.Number = v
	}
	if v := os.Getenv("WABRIDGE_ALERT_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Business.AlertDelayMs = n
		}
	}

	if v := os.Getenv("WABRIDGE_SESSION_DB"); v != "" {
		cfg.Gateway.StorePath = expandHome(v)
	}
	if v := os.Getenv("WABRIDGE_GATEWAY_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.TimeoutSeconds = n
		}
	}

	if v := os.Getenv("WABRIDGE_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}

	if v := os.Getenv("WABRIDGE_MESSAGE_DB"); v != "" {
		cfg.Store.Path = expandHome(v)
	}

	if v := os.Getenv("WABRIDGE_TUNNEL_MODE"); v != "" {
		cfg.Tunnel.Mode = v
	}
}

// Validate clamps out-of-range values back to usable defaults.
func (c *Config) Validate() {
	if c.Phone.MinInternationalDigits <= 0 {
		c.Phone.MinInternationalDigits = 12
	}
	if c.Business.AlertDelayMs < 0 {
		c.Business.AlertDelayMs = 3000
	}
	if c.Gateway.TimeoutSeconds < 1 {
		c.Gateway.TimeoutSeconds = 20
	}
	if c.QR.RefreshSeconds < 1 {
		c.QR.RefreshSeconds = 30
	}
	if c.QR.Size < 64 {
		c.QR.Size = 256
	}

	mode := strings.ToLower(c.Tunnel.Mode)
	switch mode {
	case "off", "tailscale":
		c.Tunnel.Mode = mode
	default:
		c.Tunnel.Mode = "off"
	}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
