package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Dialer is the part of gomail.Dialer used to deliver messages.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier delivers messages as HTML email.
type SMTPNotifier struct {
	dialer Dialer
	from   string
}

// NewSMTPNotifier builds a notifier that sends through the given SMTP server.
func NewSMTPNotifier(host string, port int, username, password, from string) *SMTPNotifier {
	return NewSMTPNotifierWithDialer(gomail.NewDialer(host, port, username, password), from)
}

// NewSMTPNotifierWithDialer builds a notifier around an existing dialer.
func NewSMTPNotifierWithDialer(d Dialer, from string) *SMTPNotifier {
	return &SMTPNotifier{dialer: d, from: from}
}

// Send composes and delivers the message. gomail has no context support, so
// cancellation is only honoured before dialing.
func (n *SMTPNotifier) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message.Destination == "" {
		return fmt.Errorf("notification destination is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", message.Destination)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/html", message.Body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s mail: %w", message.Kind, err)
	}
	return nil
}
