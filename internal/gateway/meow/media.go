package meow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"

	"github.com/hybridz/wa-form-bridge/internal/gateway"
	"github.com/hybridz/wa-form-bridge/internal/phone"
)

// maxMediaBytes bounds the media download; WhatsApp rejects larger uploads
// anyway.
const maxMediaBytes = 64 << 20

// SendMedia fetches mediaURL, uploads it to the transport's media host, and
// delivers it with an optional caption. Images are sent as image messages,
// everything else as a document.
func (c *Client) SendMedia(ctx context.Context, to phone.Address, mediaURL, caption string) (string, error) {
	if !c.IsReady() {
		return "", gateway.ErrNotReady
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", classify(err)
	}

	data, mime, err := c.fetchMedia(ctx, mediaURL)
	if err != nil {
		return "", classify(err)
	}

	mediaType := whatsmeow.MediaDocument
	if strings.HasPrefix(mime, "image/") {
		mediaType = whatsmeow.MediaImage
	}

	up, err := c.wm.Upload(ctx, data, mediaType)
	if err != nil {
		return "", classify(fmt.Errorf("upload media: %w", err))
	}

	msg := &waProto.Message{}
	switch mediaType {
	case whatsmeow.MediaImage:
		msg.ImageMessage = &waProto.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mime),
			URL:           &up.URL,
			DirectPath:    &up.DirectPath,
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    &up.FileLength,
		}
	default:
		msg.DocumentMessage = &waProto.DocumentMessage{
			Title:         proto.String(fileNameFromURL(mediaURL)),
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mime),
			URL:           &up.URL,
			DirectPath:    &up.DirectPath,
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    &up.FileLength,
		}
	}

	jid := toJID(to)
	resp, err := c.wm.SendMessage(ctx, jid, msg)
	if err != nil {
		return "", classify(err)
	}

	c.recordOutbound(jid, resp.ID, "[media] "+mediaURL)
	return resp.ID, nil
}

// fetchMedia downloads the media and reports its MIME type, preferring the
// Content-Type header and falling back to content sniffing.
func (c *Client) fetchMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build media request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch media: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read media: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("fetch media: empty body")
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	return data, mime, nil
}

func fileNameFromURL(mediaURL string) string {
	s := mediaURL
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '/'); i >= 0 && i+1 < len(s) {
		return s[i+1:]
	}
	return "file"
}
