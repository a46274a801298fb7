package qrpage

import (
	"strings"
	"testing"
)

type staticSource struct {
	payload string
	ok      bool
}

func (s staticSource) PendingPairingPayload() (string, bool) { return s.payload, s.ok }

func TestRenderWaitingWithoutPayload(t *testing.T) {
	r := &Renderer{Source: staticSource{}, RefreshSeconds: 30, Size: 256}
	page := r.Render()

	if !page.Waiting {
		t.Fatal("expected waiting page")
	}
	if !strings.Contains(page.HTML, "Waiting for QR code") {
		t.Errorf("waiting page missing heading:\n%s", page.HTML)
	}
	if strings.Contains(page.HTML, "<img") {
		t.Error("waiting page must not embed an image")
	}
}

func TestRenderQRWithPayload(t *testing.T) {
	r := &Renderer{
		Source:         staticSource{payload: "2@pairing-code", ok: true},
		RefreshSeconds: 30,
		Size:           256,
	}
	page := r.Render()

	if page.Waiting {
		t.Fatal("expected QR page, got waiting")
	}
	if !strings.Contains(page.HTML, `<img src="data:image/png;base64,`) {
		t.Errorf("QR page missing embedded image:\n%s", page.HTML[:200])
	}
	if !strings.Contains(page.HTML, `http-equiv="refresh" content="30"`) {
		t.Error("QR page missing 30s auto-refresh")
	}
	if strings.Contains(page.HTML, "Waiting for QR code") {
		t.Error("QR page must not contain waiting text")
	}
}

func TestRenderEncodeFailureYieldsErrorPage(t *testing.T) {
	// A payload too large for any QR version forces an encode error.
	huge := strings.Repeat("x", 8000)
	r := &Renderer{Source: staticSource{payload: huge, ok: true}, RefreshSeconds: 30, Size: 256}
	page := r.Render()

	if page.Waiting {
		t.Fatal("error page is not the waiting page")
	}
	if !strings.Contains(page.HTML, "Could not render the QR code") {
		t.Errorf("expected error page:\n%s", page.HTML)
	}
}
