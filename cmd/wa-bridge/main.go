package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hybridz/wa-form-bridge/internal/config"
	"github.com/hybridz/wa-form-bridge/internal/gateway/meow"
	"github.com/hybridz/wa-form-bridge/internal/httpapi"
	"github.com/hybridz/wa-form-bridge/internal/notify"
	"github.com/hybridz/wa-form-bridge/internal/qrpage"
	"github.com/hybridz/wa-form-bridge/internal/session"
	"github.com/hybridz/wa-form-bridge/internal/store"
	"github.com/hybridz/wa-form-bridge/internal/tunnel"
	"github.com/hybridz/wa-form-bridge/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("open message store: %v", err)
	}
	defer messages.Close()

	tracker := session.NewTracker()

	gw, err := meow.New(ctx, cfg.Gateway.StorePath, tracker, messages)
	if err != nil {
		log.Fatalf("create gateway: %v", err)
	}
	if err := gw.Connect(ctx); err != nil {
		log.Fatalf("connect gateway: %v", err)
	}
	defer gw.Disconnect()

	callTimeout := time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second

	srv := &httpapi.Server{
		Addr:    cfg.HTTP.Addr,
		Gateway: gw,
		Tracker: tracker,
		Orchestrator: &webhook.Orchestrator{
			Gateway:        gw,
			Composer:       notify.NewComposer(),
			Sched:          webhook.TimerScheduler{},
			CountryPrefix:  cfg.Phone.DefaultCountryPrefix,
			MinIntlDigits:  cfg.Phone.MinInternationalDigits,
			BusinessNumber: cfg.Business.Number,
			AlertDelay:     time.Duration(cfg.Business.AlertDelayMs) * time.Millisecond,
			CallTimeout:    callTimeout,
		},
		QR: &qrpage.Renderer{
			Source:         tracker,
			RefreshSeconds: cfg.QR.RefreshSeconds,
			Size:           cfg.QR.Size,
		},
		WebhookSecret: cfg.Webhook.Secret,
		CountryPrefix: cfg.Phone.DefaultCountryPrefix,
		MinIntlDigits: cfg.Phone.MinInternationalDigits,
		CallTimeout:   callTimeout,
	}

	if cfg.Tunnel.Mode == "tailscale" {
		funnel, err := tunnel.Start(portOf(cfg.HTTP.Addr))
		if err != nil {
			log.Fatalf("start tunnel: %v", err)
		}
		defer funnel.Stop()
		log.Printf("form webhook reachable at %s", funnel.WebhookURL())
	}

	// Graceful shutdown on signal.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Printf("received %s, shutting down", sig)
		cancel()
	}()

	log.Printf("waiting for WhatsApp session — open http://localhost%s/qr to pair", cfg.HTTP.Addr)

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("http server error: %v", err)
	}
}

// portOf extracts the port from a listen address like ":3000".
func portOf(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		return addr[i+1:]
	}
	return addr
}
