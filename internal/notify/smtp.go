package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"elearning/internal/config"
)

// SMTPNotifier delivers messages over SMTP.
type SMTPNotifier struct {
	from string
	dial func() (gomail.SendCloser, error)
}

// NewSMTPNotifier creates an SMTP notifier. Port 465 uses implicit TLS,
// other ports upgrade with STARTTLS when the server offers it.
func NewSMTPNotifier(cfg config.SMTPConfig, from string) *SMTPNotifier {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	if from == "" {
		from = cfg.Username
	}
	return &SMTPNotifier{from: from, dial: dialer.Dial}
}

// Send dials the server and delivers msg. The dial and transfer are
// abandoned when ctx is done.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		sc, err := n.dial()
		if err != nil {
			done <- fmt.Errorf("dial smtp: %w", err)
			return
		}
		defer sc.Close()
		if err := gomail.Send(sc, m); err != nil {
			done <- fmt.Errorf("send mail: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
