package session

import (
	"sync"
	"testing"
	"time"
)

func TestPairingFlowEndsReady(t *testing.T) {
	tr := NewTracker()

	tr.PairingRequested("2@abc123")
	if p, ok := tr.PendingPairingPayload(); !ok || p != "2@abc123" {
		t.Fatalf("expected pending payload 2@abc123, got %q ok=%v", p, ok)
	}

	tr.Authenticated()
	if _, ok := tr.PendingPairingPayload(); ok {
		t.Fatal("payload must be cleared on authentication")
	}

	tr.Ready()
	if !tr.IsReady() {
		t.Fatal("expected Ready after authenticated -> ready")
	}
	if _, ok := tr.PendingPairingPayload(); ok {
		t.Fatal("payload must stay cleared in Ready")
	}
}

func TestPayloadOnlyVisibleWhilePairing(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.PendingPairingPayload(); ok {
		t.Fatal("uninitialized tracker has no payload")
	}
	tr.PairingRequested("code")
	tr.Disconnected("stream error")
	if _, ok := tr.PendingPairingPayload(); ok {
		t.Fatal("disconnect clears the payload")
	}
}

func TestReadyWithoutAuthenticatedIsAccepted(t *testing.T) {
	tr := NewTracker()
	tr.Ready()
	if !tr.IsReady() {
		t.Fatal("restored sessions go straight to Ready")
	}
}

func TestReadyIsIdempotent(t *testing.T) {
	tr := NewTracker()
	ch := tr.Subscribe()
	defer tr.Unsubscribe(ch)

	tr.Ready()
	tr.Ready()

	select {
	case s := <-ch:
		if s.Phase != Ready {
			t.Fatalf("expected Ready event, got %s", s.Phase)
		}
	case <-time.After(time.Second):
		t.Fatal("no event for first Ready")
	}

	select {
	case s := <-ch:
		t.Fatalf("second Ready must not emit an event, got %s", s.Phase)
	default:
	}
}

func TestDisconnectedFromAnyState(t *testing.T) {
	tr := NewTracker()
	tr.Ready()
	tr.Disconnected("logged out")

	s := tr.State()
	if s.Phase != Disconnected || s.Reason != "logged out" {
		t.Fatalf("expected Disconnected(logged out), got %+v", s)
	}
	if tr.IsReady() {
		t.Fatal("disconnected session is not ready")
	}
}

func TestUnsubscribeDuringTransitions(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := 0; n < 500; n++ {
				tr.Ready()
				tr.Disconnected("stream error")
			}
		}()
		go func() {
			defer wg.Done()
			for n := 0; n < 500; n++ {
				ch := tr.Subscribe()
				tr.Unsubscribe(ch)
			}
		}()
	}

	// A fan-out racing a close panics the lifecycle callback; finishing
	// cleanly is the assertion.
	wg.Wait()
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	tr := NewTracker()
	ch := tr.Subscribe()
	defer tr.Unsubscribe(ch)

	tr.PairingRequested("p")
	tr.Authenticated()

	want := []Phase{PairingPending, Authenticated}
	for _, phase := range want {
		select {
		case s := <-ch:
			if s.Phase != phase {
				t.Fatalf("expected %s, got %s", phase, s.Phase)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", phase)
		}
	}
}
