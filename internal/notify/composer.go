// Package notify builds the outbound message bodies for form submissions:
// the acknowledgment sent to the client and the internal business alert.
package notify

import (
	"strings"
	"time"
)

// FormSubmission is a parsed form payload. Fields are already resolved from
// their aliases (phone|mobile, name|names, message|description) and are
// treated as untrusted text: interpolated verbatim, never evaluated.
type FormSubmission struct {
	Phone   string
	Name    string
	Subject string
	Message string
	Email   string
}

// Composer renders message bodies. Now is injectable so the alert timestamp
// is deterministic in tests.
type Composer struct {
	Now func() time.Time
}

// NewComposer returns a Composer using the wall clock.
func NewComposer() *Composer {
	return &Composer{Now: time.Now}
}

// ComposeClientAck builds the acknowledgment sent to the submitting client.
func (c *Composer) ComposeClientAck(sub FormSubmission) string {
	name := sub.Name
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	b.WriteString("Hello " + name + "! 👋\n\n")
	b.WriteString("Thank you for contacting us through our website. We have received your message:\n\n")

	if sub.Subject != "" {
		b.WriteString("📝 *Subject:* " + sub.Subject + "\n")
	}
	if sub.Message != "" {
		b.WriteString("💬 *Your Message:* " + sub.Message + "\n\n")
	}

	b.WriteString("We will get back to you as soon as possible! 🙏\n\n")
	b.WriteString("Best regards,\nYour Team")
	return b.String()
}

// ComposeBusinessAlert builds the internal notification listing the client's
// details, a timestamp, and the delivery status.
func (c *Composer) ComposeBusinessAlert(sub FormSubmission, clientPhoneRaw, status string) string {
	var b strings.Builder
	b.WriteString("🔔 *New Form Submission - Message Sent to Client*\n\n")
	b.WriteString("👤 *Client:* " + orNA(sub.Name) + "\n")
	b.WriteString("📱 *Phone:* " + orNA(clientPhoneRaw) + "\n")
	b.WriteString("📧 *Email:* " + orNA(sub.Email) + "\n")
	b.WriteString("💬 *Message:* " + orNA(sub.Message) + "\n")
	b.WriteString("\n⏰ *Time:* " + c.Now().Format("1/2/2006, 3:04:05 PM"))
	b.WriteString("\n✅ *Status:* " + status)
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
