// Package httpapi serves the bridge's HTTP surface: the message API, the
// QR pairing page, the form webhooks, and the session event feed.
package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hybridz/wa-form-bridge/internal/gateway"
	"github.com/hybridz/wa-form-bridge/internal/qrpage"
	"github.com/hybridz/wa-form-bridge/internal/session"
	"github.com/hybridz/wa-form-bridge/internal/webhook"
)

// chatListLimit caps the /api/chats response.
const chatListLimit = 20

// Server wires the HTTP routes to the bridge components.
type Server struct {
	Addr         string
	Gateway      gateway.Gateway
	Tracker      *session.Tracker
	Orchestrator *webhook.Orchestrator
	QR           *qrpage.Renderer

	// WebhookSecret enables HMAC-SHA256 validation of form webhook bodies
	// via X-Hub-Signature-256 when non-empty.
	WebhookSecret string

	CountryPrefix string
	MinIntlDigits int
	CallTimeout   time.Duration
}

// Handler returns the full route table wrapped in the request-ID middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/send-message", s.handleSendMessage)
	mux.HandleFunc("/api/send-media", s.handleSendMedia)
	mux.HandleFunc("/api/chats", s.handleChats)
	mux.HandleFunc("/qr", s.handleQR)
	mux.HandleFunc("/webhook/fluent-forms", s.handleFormWebhook)
	mux.HandleFunc("/webhook/test", s.handleTestWebhook)
	mux.HandleFunc("/ws/events", s.handleEvents)
	mux.HandleFunc("/health", handleHealth)
	return withRequestID(mux)
}

// Run starts the server and blocks until ctx is cancelled, at which point it
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Printf("http server listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// withRequestID tags each request with an ID for log correlation.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		log.Printf("http: %s %s id=%s", r.Method, r.URL.Path, id)
		next.ServeHTTP(w, r)
	})
}

// validSignature checks the X-Hub-Signature-256 HMAC.
func validSignature(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	sig := strings.TrimPrefix(header, "sha256=")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(expected))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}
