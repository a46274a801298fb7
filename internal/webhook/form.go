package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hybridz/wa-form-bridge/internal/notify"
)

// ErrBadPayload means the webhook body was not a JSON object. Client-visible:
// the caller gets a 400.
var ErrBadPayload = errors.New("webhook: malformed form payload")

// ParseSubmission extracts a form submission from a webhook payload. Fluent
// Forms wraps the fields under "data"; other form plugins post them flat, so
// the payload itself is used when "data" is absent.
func ParseSubmission(body []byte) (notify.FormSubmission, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return notify.FormSubmission{}, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	fields := payload
	if raw, ok := payload["data"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil && nested != nil {
			fields = nested
		}
	}

	return notify.FormSubmission{
		Phone:   firstField(fields, "phone", "mobile"),
		Name:    firstField(fields, "name", "names"),
		Subject: firstField(fields, "subject"),
		Message: firstField(fields, "message", "description"),
		Email:   firstField(fields, "email"),
	}, nil
}

// firstField returns the first non-empty value among the named aliases.
// Non-string JSON values (numbers, mostly) are rendered as their literal text.
func firstField(fields map[string]json.RawMessage, names ...string) string {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		if v := string(raw); v != "" && v != "null" {
			return v
		}
	}
	return ""
}
