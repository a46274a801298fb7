package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hybridz/wa-form-bridge/internal/session"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	// The feed carries no secrets and the dashboard may be served from
	// another origin, so cross-origin upgrades are allowed.
	CheckOrigin: func(*http.Request) bool { return true },
}

// sessionEvent is the wire format pushed to /ws/events subscribers.
type sessionEvent struct {
	Type   string `json:"type"`
	Phase  string `json:"phase"`
	Reason string `json:"reason,omitempty"`
}

// handleEvents streams session lifecycle changes to a websocket client. The
// current state is sent immediately so late subscribers don't wait for the
// next transition.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := s.Tracker.Subscribe()
	defer s.Tracker.Unsubscribe(ch)

	if err := writeEvent(conn, s.Tracker.State()); err != nil {
		return
	}

	// Reader goroutine: we never expect client frames, but reading is the
	// only way to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(conn, st); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, st session.State) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(sessionEvent{
		Type:   "session",
		Phase:  st.Phase.String(),
		Reason: st.Reason,
	})
}
