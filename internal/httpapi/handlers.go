package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/hybridz/wa-form-bridge/internal/gateway"
	"github.com/hybridz/wa-form-bridge/internal/phone"
	"github.com/hybridz/wa-form-bridge/internal/webhook"
)

type statusResponse struct {
	Status      string `json:"status"`
	QRGenerated bool   `json:"qrGenerated"`
	Ready       bool   `json:"ready"`
	QRAvailable bool   `json:"qrAvailable"`
}

type sendResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	ready := s.Gateway.IsReady()
	status := "not ready"
	if ready {
		status = "ready"
	}
	_, qrAvailable := s.Tracker.PendingPairingPayload()

	writeJSON(w, http.StatusOK, statusResponse{
		Status:      status,
		QRGenerated: s.Tracker.PairingSeen(),
		Ready:       ready,
		QRAvailable: qrAvailable,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number  string `json:"number"`
		Message string `json:"message"`
	}
	if !s.decodeSendRequest(w, r, &req) {
		return
	}
	if req.Number == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Phone number and message are required"})
		return
	}

	addr, err := phone.Normalize(req.Number, s.CountryPrefix, s.MinIntlDigits)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid phone number"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.CallTimeout)
	defer cancel()
	id, err := s.Gateway.SendText(ctx, addr, req.Message)
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}

	log.Printf("http: message sent to %s", addr)
	writeJSON(w, http.StatusOK, sendResponse{
		Success:   true,
		Message:   "Message sent successfully",
		MessageID: id,
	})
}

func (s *Server) handleSendMedia(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number   string `json:"number"`
		MediaURL string `json:"mediaUrl"`
		Caption  string `json:"caption"`
	}
	if !s.decodeSendRequest(w, r, &req) {
		return
	}
	if req.Number == "" || req.MediaURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Phone number and media URL are required"})
		return
	}

	addr, err := phone.Normalize(req.Number, s.CountryPrefix, s.MinIntlDigits)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid phone number"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.CallTimeout)
	defer cancel()
	id, err := s.Gateway.SendMedia(ctx, addr, req.MediaURL, req.Caption)
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}

	log.Printf("http: media sent to %s", addr)
	writeJSON(w, http.StatusOK, sendResponse{
		Success:   true,
		Message:   "Media sent successfully",
		MessageID: id,
	})
}

// decodeSendRequest handles the shared method/readiness/body plumbing of the
// send endpoints. It writes the error response itself and reports success.
func (s *Server) decodeSendRequest(w http.ResponseWriter, r *http.Request, into any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return false
	}
	if !s.Gateway.IsReady() {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "WhatsApp client is not ready. Please scan QR code first.",
		})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) writeGatewayError(w http.ResponseWriter, err error) {
	log.Printf("http: gateway error: %v", err)
	if errors.Is(err, gateway.ErrNotReady) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "WhatsApp client is not ready"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	if !s.Gateway.IsReady() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "WhatsApp client is not ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.CallTimeout)
	defer cancel()
	chats, err := s.Gateway.ListRecentConversations(ctx, chatListLimit)
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	if chats == nil {
		chats = []gateway.ConversationSummary{}
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool                          `json:"success"`
		Chats   []gateway.ConversationSummary `json:"chats"`
	}{Success: true, Chats: chats})
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page := s.QR.Render()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, page.HTML)
}

type webhookResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	ClientPhone string `json:"clientPhone,omitempty"`
}

func (s *Server) handleFormWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, webhookResponse{Message: "method not allowed"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, webhookResponse{Message: "read error"})
		return
	}

	if s.WebhookSecret != "" {
		sig := r.Header.Get("X-Hub-Signature-256")
		if !validSignature(body, sig, s.WebhookSecret) {
			log.Printf("webhook: invalid signature")
			writeJSON(w, http.StatusUnauthorized, webhookResponse{Message: "invalid signature"})
			return
		}
	}

	res, err := s.Orchestrator.HandleFormSubmission(r.Context(), body)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, webhookResponse{
			Success:     true,
			Message:     "Message sent to client successfully",
			ClientPhone: res.ClientPhone,
		})
	case errors.Is(err, webhook.ErrBadPayload):
		log.Printf("webhook: %v", err)
		writeJSON(w, http.StatusBadRequest, webhookResponse{Message: "Invalid JSON payload"})
	case errors.Is(err, webhook.ErrMissingPhone):
		log.Printf("webhook: %v", err)
		writeJSON(w, http.StatusBadRequest, webhookResponse{Message: "No phone number provided in form"})
	case errors.Is(err, phone.ErrInvalidAddress):
		log.Printf("webhook: %v", err)
		writeJSON(w, http.StatusBadRequest, webhookResponse{Message: "Invalid phone number in form"})
	case errors.Is(err, gateway.ErrNotReady):
		log.Printf("webhook: gateway not ready")
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Message: "WhatsApp client not ready"})
	default:
		log.Printf("webhook: %v", err)
		writeJSON(w, http.StatusInternalServerError, webhookResponse{Message: "Failed to send message to client"})
	}
}

func (s *Server) handleTestWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, webhookResponse{Message: "method not allowed"})
		return
	}
	body, _ := io.ReadAll(r.Body)
	log.Printf("webhook: test payload received (%d bytes)", len(body))
	writeJSON(w, http.StatusOK, webhookResponse{Success: true, Message: "Test webhook received"})
}
