package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"elearning/internal/metrics"
)

const defaultSendTimeout = 30 * time.Second

// Message is a plain text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers a message synchronously.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage is sent right after registration and whenever an
// unverified user has to be issued a new code.
func VerificationMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Verification code",
		Body:    fmt.Sprintf("Your verification code is: %s", code),
	}
}

// PasswordRecoveryMessage carries the code used to set a new password.
func PasswordRecoveryMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Verification code",
		Body:    fmt.Sprintf("Enter the following code to recover your password: %s", code),
	}
}

// ResendCodeMessage is sent when the user explicitly asks for a new code.
func ResendCodeMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Verification code",
		Body:    fmt.Sprintf("Your new code is: %s", code),
	}
}

// Dispatcher sends messages in the background so that callers never wait
// on, or fail because of, mail delivery.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher wraps notifier. A non-positive timeout falls back to 30s.
func NewDispatcher(notifier Notifier, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		logger:   logger.With().Str("component", "notify").Logger(),
	}
}

// Notify queues msg for delivery and returns immediately. The request
// scoped logger of ctx is kept, its cancellation is not.
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	logger := d.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		logger = *l
	}
	base := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(base, d.timeout)
		defer cancel()

		if err := d.notifier.Send(sendCtx, msg); err != nil {
			metrics.RecordNotification("failed")
			logger.Error().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("notification failed")
			return
		}
		metrics.RecordNotification("sent")
		logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("notification sent")
	}()
}

// Wait blocks until every queued message has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
