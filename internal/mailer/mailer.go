// Package mailer sends notification email off the request path.
package mailer

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Message is one outgoing email
type Message struct {
	To      string // Recipient address
	Subject string // Subject line
	HTML    string // HTML body
	Text    string // Plain text alternative
}

// Sender delivers a message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through an SMTP relay
type SMTPSender struct {
	dialer *gomail.Dialer // SMTP connection settings
	from   string         // From header
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send dials the relay and sends the message
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err // Do not dial for a cancelled send
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return s.dialer.DialAndSend(m)
}

// LogSender writes messages to the log instead of sending them; used when no SMTP host is configured
type LogSender struct{}

// Send logs the message
func (LogSender) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("Email (not sent, SMTP disabled)")
	return nil
}

// WelcomeMessage is sent after registration
func WelcomeMessage(to, username string) Message {
	name := html.EscapeString(username)
	return Message{
		To:      to,
		Subject: "Welcome to the shop",
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready. Happy shopping!</p>", name),
		Text:    fmt.Sprintf("Hi %s,\n\nYour account is ready. Happy shopping!\n", username),
	}
}

// PasswordResetMessage carries a one-time password reset code
func PasswordResetMessage(to, username, code string, ttl time.Duration) Message {
	name := html.EscapeString(username)
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	return Message{
		To:      to,
		Subject: "Your password reset code",
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your password reset code is <strong>%s</strong>. It expires in %d minutes.</p>",
			name, html.EscapeString(code), minutes),
		Text: fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. It expires in %d minutes.\n", username, code, minutes),
	}
}
