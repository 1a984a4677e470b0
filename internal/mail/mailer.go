// Package mail defines the outbound message model and the SMTP sender used
// by the contact and newsletter relays. Transport is delegated entirely to
// the SMTP provider; this package only assembles messages and hands them
// off, one connection per send.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Attachment references a staged file by disk path, carrying the display
// name it should have in the delivered message.
type Attachment struct {
	Name string
	Path string
}

// Message is a single outbound email. From is a header identity only; the
// envelope sender is always the authenticated SMTP account.
type Message struct {
	From        string
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers a message. Implementations must be safe for concurrent
// use; the autoresponder path sends from a detached goroutine.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends via an authenticated SMTP account (e.g. a Gmail app
// password). It dials per send rather than holding a connection: submission
// volume is a handful of mails a day.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
}

// NewSMTPSender returns a sender for the given account.
func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, Username: username, Password: password}
}

// Send assembles and delivers msg. Errors from address parsing, dialing, and
// delivery are all returned as-is for the caller to classify.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(s.Username, msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.Host,
		gomail.WithPort(s.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.Username),
		gomail.WithPassword(s.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMsg maps a Message onto a go-mail message. The envelope sender is the
// authenticated account; msg.From only sets the visible From header, which
// is how a submission appears to come from the visitor's own address.
func buildMsg(envelopeFrom string, msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.EnvelopeFrom(envelopeFrom); err != nil {
		return nil, fmt.Errorf("envelope from %q: %w", envelopeFrom, err)
	}
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", msg.To, err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to %q: %w", msg.ReplyTo, err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	for _, a := range msg.Attachments {
		m.AttachFile(a.Path, gomail.WithFileName(a.Name))
	}
	return m, nil
}
