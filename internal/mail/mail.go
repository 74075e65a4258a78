// Package mail delivers the storefront's outgoing e-mail.
package mail

import (
	"context"
	"errors"
	"log/slog"

	"gopkg.in/gomail.v2"
)

type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

var ErrNoRecipient = errors.New("mail: no recipient")

// SMTPSender sends through one SMTP server. A new connection is dialed per
// message.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, user, password, from string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, user, password), from: from}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To...)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)
	return s.dialer.DialAndSend(msg)
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipient
	}
	slog.InfoContext(ctx, "mail (not sent, no SMTP host)",
		"to", m.To, "reply_to", m.ReplyTo, "subject", m.Subject, "body", m.Body)
	return nil
}
