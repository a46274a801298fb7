// Package gateway defines the messaging capability the bridge core depends
// on. The whatsmeow-backed implementation lives in gateway/meow; tests use
// in-package fakes.
package gateway

import (
	"context"
	"errors"

	"github.com/hybridz/wa-form-bridge/internal/phone"
)

var (
	// ErrNotReady means the session is not linked; no send was attempted.
	ErrNotReady = errors.New("gateway: session not ready")
	// ErrTimeout means a transport call exceeded its deadline.
	ErrTimeout = errors.New("gateway: call timed out")
	// ErrSendFailed wraps transport-level delivery failures.
	ErrSendFailed = errors.New("gateway: send failed")
)

// ConversationSummary is one entry of the recent-conversations listing.
type ConversationSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsGroup     bool   `json:"isGroup"`
	LastMessage string `json:"lastMessage"`
	Timestamp   int64  `json:"timestamp"`
}

// Gateway is the transport capability. Implementations own the session
// lifecycle and report it to the session tracker; callers only send.
type Gateway interface {
	// IsReady reports whether messages can be sent right now.
	IsReady() bool

	// SendText delivers a text message and returns the transport message ID.
	SendText(ctx context.Context, to phone.Address, body string) (string, error)

	// SendMedia fetches mediaURL and delivers it with an optional caption.
	SendMedia(ctx context.Context, to phone.Address, mediaURL, caption string) (string, error)

	// ListRecentConversations returns up to limit conversations,
	// most recent first.
	ListRecentConversations(ctx context.Context, limit int) ([]ConversationSummary, error)
}
