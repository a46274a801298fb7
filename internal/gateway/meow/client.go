// Package meow implements the messaging gateway on top of whatsmeow.
// It owns the device session (sqlite-backed), relays lifecycle events into
// the session tracker, and throttles outbound sends.
package meow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mdp/qrterminal/v3"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/hybridz/wa-form-bridge/internal/gateway"
	"github.com/hybridz/wa-form-bridge/internal/phone"
	"github.com/hybridz/wa-form-bridge/internal/session"
	msgstore "github.com/hybridz/wa-form-bridge/internal/store"
)

// Client is the whatsmeow-backed gateway.
type Client struct {
	wm       *whatsmeow.Client
	tracker  *session.Tracker
	messages *msgstore.MessageStore
	limiter  *rate.Limiter
	httpc    *http.Client
	log      waLog.Logger
}

// New creates a gateway client backed by the sqlite session store at
// storePath. Lifecycle events are reported to tracker; messages are recorded
// in msgs (may be nil) for the conversation listing.
func New(ctx context.Context, storePath string, tracker *session.Tracker, msgs *msgstore.MessageStore) (*Client, error) {
	logger := waLog.Stdout("Gateway", "INFO", false)

	container, err := sqlstore.New(ctx, "sqlite3", "file:"+storePath+"?_foreign_keys=on", logger)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	c := &Client{
		wm:       whatsmeow.NewClient(device, logger),
		tracker:  tracker,
		messages: msgs,
		limiter:  rate.NewLimiter(rate.Every(250*time.Millisecond), 3),
		httpc:    &http.Client{Timeout: 30 * time.Second},
		log:      logger,
	}

	c.wm.AddEventHandler(c.handleEvent)
	return c, nil
}

// Connect starts the session. A fresh device goes through the QR pairing
// flow: each issued code is pushed into the tracker (for the /qr page) and
// printed to the terminal. A stored device reconnects silently.
func (c *Client) Connect(ctx context.Context) error {
	if c.wm.Store.ID == nil {
		qrChan, err := c.wm.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		if err := c.wm.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}

		go func() {
			for evt := range qrChan {
				switch evt.Event {
				case "code":
					c.tracker.PairingRequested(evt.Code)
					qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
				case "success":
					c.tracker.Authenticated()
				case "timeout":
					c.tracker.Disconnected("pairing timed out")
				}
			}
		}()
		return nil
	}

	if err := c.wm.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Disconnect tears down the transport connection. Session credentials stay
// in the sqlite store, so the next start reconnects without re-pairing.
func (c *Client) Disconnect() {
	c.wm.Disconnect()
}

// handleEvent reflects transport lifecycle into the tracker and records
// inbound messages. Inbound messages trigger no further processing.
func (c *Client) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.PairSuccess:
		c.tracker.Authenticated()

	case *events.Connected:
		c.tracker.Ready()

	case *events.Disconnected:
		c.tracker.Disconnected("connection lost")

	case *events.LoggedOut:
		c.tracker.Disconnected("logged out")

	case *events.Message:
		c.recordMessage(v)
	}
}

func (c *Client) recordMessage(v *events.Message) {
	body := extractBody(v.Message)
	if body == "" {
		return
	}

	if !v.Info.IsFromMe {
		c.log.Infof("message from %s (%s): %s", v.Info.Sender.User, v.Info.PushName, truncate(body, 50))
	}

	if c.messages == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.messages.Record(ctx, v.Info.Chat.String(), v.Info.ID, v.Info.PushName,
		body, v.Info.Timestamp, v.Info.IsGroup, v.Info.IsFromMe)
	if err != nil {
		c.log.Warnf("record message %s: %v", v.Info.ID, err)
	}
}

// extractBody pulls the text out of a message payload; plain messages use
// Conversation, quoted/formatted ones ExtendedTextMessage.
func extractBody(m *waProto.Message) string {
	if m == nil {
		return ""
	}
	if t := m.GetExtendedTextMessage().GetText(); t != "" {
		return t
	}
	return m.GetConversation()
}

// IsReady reports whether the session can deliver messages right now.
func (c *Client) IsReady() bool {
	return c.tracker.IsReady() && c.wm.IsConnected()
}

// SendText delivers a text message and returns the transport message ID.
func (c *Client) SendText(ctx context.Context, to phone.Address, body string) (string, error) {
	if !c.IsReady() {
		return "", gateway.ErrNotReady
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", classify(err)
	}

	jid := toJID(to)
	msg := &waProto.Message{Conversation: proto.String(body)}

	resp, err := c.wm.SendMessage(ctx, jid, msg)
	if err != nil {
		return "", classify(err)
	}

	c.recordOutbound(jid, resp.ID, body)
	return resp.ID, nil
}

// ListRecentConversations returns up to limit chats, most recent first, from
// the local conversation log.
func (c *Client) ListRecentConversations(ctx context.Context, limit int) ([]gateway.ConversationSummary, error) {
	if c.messages == nil {
		return nil, nil
	}
	return c.messages.RecentConversations(ctx, limit)
}

func (c *Client) recordOutbound(jid types.JID, msgID, body string) {
	if c.messages == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.messages.Record(ctx, jid.String(), msgID, "", body, time.Now(), jid.Server == types.GroupServer, true); err != nil {
		c.log.Warnf("record outbound %s: %v", msgID, err)
	}
}

// toJID maps a normalized address to a whatsmeow JID. The "@c.us" suffix is
// the legacy wire form of the user server.
func toJID(a phone.Address) types.JID {
	return types.NewJID(a.Digits(), types.DefaultUserServer)
}

// classify folds transport errors into the gateway taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", gateway.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", gateway.ErrSendFailed, err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
