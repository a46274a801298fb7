// Package qrpage renders the device-linking page: the pending pairing
// payload as a scannable QR image, or a waiting page until one exists.
package qrpage

import (
	"encoding/base64"
	"fmt"
	"log"

	qrcode "github.com/skip2/go-qrcode"
)

// PayloadSource yields the pairing payload awaiting a scan, if any.
// *session.Tracker satisfies it.
type PayloadSource interface {
	PendingPairingPayload() (string, bool)
}

// Page is a rendered HTML artifact.
type Page struct {
	HTML string
	// Waiting is true when no pairing payload was available.
	Waiting bool
}

// Renderer builds the QR page.
type Renderer struct {
	Source         PayloadSource
	RefreshSeconds int
	Size           int
}

const waitingPage = `<!DOCTYPE html>
<html>
<head>
<meta http-equiv="refresh" content="5">
<title>Waiting for QR code</title>
</head>
<body style="font-family:sans-serif;text-align:center;padding-top:40px">
<h1>Waiting for QR code…</h1>
<p>The session is starting up. This page refreshes automatically.</p>
</body>
</html>`

const errorPage = `<!DOCTYPE html>
<html>
<head><title>QR unavailable</title></head>
<body style="font-family:sans-serif;text-align:center;padding-top:40px">
<h1>Could not render the QR code</h1>
<p>Reload the page to try again.</p>
</body>
</html>`

// Render returns the current page. Encoding failures produce an error page,
// never an error return: the /qr route always has something to show.
func (r *Renderer) Render() Page {
	payload, ok := r.Source.PendingPairingPayload()
	if !ok {
		return Page{HTML: waitingPage, Waiting: true}
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, r.Size)
	if err != nil {
		log.Printf("qrpage: encode failed: %v", err)
		return Page{HTML: errorPage}
	}

	img := base64.StdEncoding.EncodeToString(png)
	return Page{HTML: fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta http-equiv="refresh" content="%d">
<title>Link your WhatsApp</title>
</head>
<body style="font-family:sans-serif;text-align:center;padding-top:40px">
<h1>Scan with WhatsApp</h1>
<p>Open WhatsApp on your phone, go to Linked Devices, and scan this code.</p>
<img src="data:image/png;base64,%s" width="%d" height="%d" alt="pairing QR code">
</body>
</html>`, r.RefreshSeconds, img, r.Size, r.Size)}
}
