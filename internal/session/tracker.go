// Package session tracks the lifecycle of the single WhatsApp session.
package session

import (
	"log"
	"sync"
)

// Phase is the lifecycle phase of the messaging session.
type Phase int

const (
	Uninitialized Phase = iota
	PairingPending
	Authenticated
	Ready
	Disconnected
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case PairingPending:
		return "pairing-pending"
	case Authenticated:
		return "authenticated"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

// State is a snapshot of the session lifecycle. Payload is set only in
// PairingPending; Reason only in Disconnected.
type State struct {
	Phase   Phase
	Payload string
	Reason  string
}

// Tracker holds the session state. It is the only transition authority:
// gateway lifecycle callbacks mutate it, request handlers read it.
//
// Transitions are deliberately permissive: Ready can arrive without a prior
// Authenticated (a restored session never re-pairs), and Authenticated is
// accepted from any phase. Out-of-order events force the target phase rather
// than being rejected.
type Tracker struct {
	mu          sync.Mutex
	state       State
	pairingSeen bool
	subs        map[chan State]struct{}
}

// NewTracker returns a Tracker in the Uninitialized phase.
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[chan State]struct{})}
}

// State returns the current snapshot.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsReady reports whether the session can send messages.
func (t *Tracker) IsReady() bool {
	return t.State().Phase == Ready
}

// PendingPairingPayload returns the pairing code awaiting a device scan, or
// ("", false) outside the PairingPending phase.
func (t *Tracker) PendingPairingPayload() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Phase != PairingPending {
		return "", false
	}
	return t.state.Payload, true
}

// PairingRequested records a fresh pairing payload.
func (t *Tracker) PairingRequested(payload string) {
	t.mu.Lock()
	t.pairingSeen = true
	t.mu.Unlock()
	t.set(State{Phase: PairingPending, Payload: payload})
}

// PairingSeen reports whether a pairing payload was ever issued this
// process lifetime. Sticky; survives later transitions.
func (t *Tracker) PairingSeen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pairingSeen
}

// Authenticated records a successful device link. The pairing payload is
// cleared: it is single-use and must never be re-presented.
func (t *Tracker) Authenticated() {
	t.set(State{Phase: Authenticated})
}

// Ready records the session becoming able to send. Idempotent.
func (t *Tracker) Ready() {
	t.mu.Lock()
	if t.state.Phase == Ready {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	t.set(State{Phase: Ready})
}

// Disconnected records the session dropping, with a reason for the logs.
func (t *Tracker) Disconnected(reason string) {
	t.set(State{Phase: Disconnected, Reason: reason})
}

func (t *Tracker) set(s State) {
	t.mu.Lock()
	prev := t.state.Phase
	t.state = s
	// Fan out while still holding the lock: sends are non-blocking, and
	// Unsubscribe closes channels under the same lock, so a send can never
	// hit a closed channel.
	for ch := range t.subs {
		select {
		case ch <- s:
		default: // slow subscriber, drop rather than block a lifecycle callback
		}
	}
	t.mu.Unlock()

	log.Printf("session: %s -> %s", prev, s.Phase)
}

// Subscribe returns a channel receiving every state change. Slow receivers
// miss updates instead of blocking the gateway's event handler.
func (t *Tracker) Subscribe() chan State {
	ch := make(chan State, 8)
	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (t *Tracker) Unsubscribe(ch chan State) {
	t.mu.Lock()
	if _, ok := t.subs[ch]; ok {
		delete(t.subs, ch)
		close(ch)
	}
	t.mu.Unlock()
}
