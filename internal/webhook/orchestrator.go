// Package webhook turns inbound form-submission events into WhatsApp
// notifications: an immediate acknowledgment to the client and a deferred
// alert to the business number.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hybridz/wa-form-bridge/internal/gateway"
	"github.com/hybridz/wa-form-bridge/internal/notify"
	"github.com/hybridz/wa-form-bridge/internal/phone"
)

// ErrMissingPhone means the submission carried no usable phone number.
// It is client-visible: the webhook caller gets a 400.
var ErrMissingPhone = errors.New("webhook: no phone number in form submission")

// Orchestrator drives the form-submission flow. Stateless across requests;
// all session state lives in the gateway and the tracker behind it.
type Orchestrator struct {
	Gateway  gateway.Gateway
	Composer *notify.Composer
	Sched    Scheduler

	CountryPrefix  string
	MinIntlDigits  int
	BusinessNumber string
	AlertDelay     time.Duration
	CallTimeout    time.Duration
}

// Result is the outcome of a handled submission.
type Result struct {
	ClientAddress phone.Address
	// ClientPhone is the raw phone as submitted, echoed to the webhook caller.
	ClientPhone string
}

// HandleFormSubmission validates a form payload, sends the client
// acknowledgment, and schedules the deferred business alert.
//
// Failure order matters: a missing phone rejects before the gateway is
// consulted, and an unready gateway rejects before any send. Once the client
// ack succeeds the caller sees success; the deferred alert can no longer
// affect the response and its failures are only logged.
func (o *Orchestrator) HandleFormSubmission(ctx context.Context, body []byte) (Result, error) {
	sub, err := ParseSubmission(body)
	if err != nil {
		return Result{}, err
	}

	if sub.Phone == "" {
		return Result{}, ErrMissingPhone
	}

	if !o.Gateway.IsReady() {
		return Result{}, gateway.ErrNotReady
	}

	addr, err := phone.Normalize(sub.Phone, o.CountryPrefix, o.MinIntlDigits)
	if err != nil {
		return Result{}, err
	}

	ack := o.Composer.ComposeClientAck(sub)

	sendCtx, cancel := context.WithTimeout(ctx, o.CallTimeout)
	defer cancel()
	if _, err := o.Gateway.SendText(sendCtx, addr, ack); err != nil {
		return Result{}, classifySendErr(err)
	}
	log.Printf("webhook: acknowledgment sent to %s", addr)

	o.Sched.AfterFunc(o.AlertDelay, func() {
		o.sendBusinessAlert(sub)
	})

	return Result{ClientAddress: addr, ClientPhone: sub.Phone}, nil
}

// sendBusinessAlert runs from the scheduler, after the webhook response has
// already been written. Terminal-but-silent: failures are logged, never
// retried, never surfaced.
func (o *Orchestrator) sendBusinessAlert(sub notify.FormSubmission) {
	addr, err := phone.Normalize(o.BusinessNumber, o.CountryPrefix, o.MinIntlDigits)
	if err != nil {
		log.Printf("webhook: invalid business number %q: %v", o.BusinessNumber, err)
		return
	}

	alert := o.Composer.ComposeBusinessAlert(sub, sub.Phone, "Message sent to client")

	ctx, cancel := context.WithTimeout(context.Background(), o.CallTimeout)
	defer cancel()
	if _, err := o.Gateway.SendText(ctx, addr, alert); err != nil {
		log.Printf("webhook: failed to send business alert: %v", err)
		return
	}
	log.Printf("webhook: business alert sent to %s", addr)
}

// classifySendErr folds context expiry into the gateway taxonomy and tags
// everything else as a send failure.
func classifySendErr(err error) error {
	switch {
	case errors.Is(err, gateway.ErrNotReady), errors.Is(err, gateway.ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", gateway.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", gateway.ErrSendFailed, err)
	}
}
