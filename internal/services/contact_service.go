// Package services – ContactService
//
// This file implements the contact-form relay: validate the sender address
// with the external validator, send the submission to the fixed business
// inbox, and, only after that send succeeds, fire a detached best-effort
// confirmation back to the submitter. The asymmetry is deliberate: the
// client's outcome is decided entirely by the primary send, and a failed
// confirmation is logged, never surfaced.
package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ewg-studio/go-site-backend/internal/clients/mailboxcheck"
	"github.com/ewg-studio/go-site-backend/internal/mail"
	"github.com/ewg-studio/go-site-backend/internal/storage"
)

// EmailValidator is the address-validation contract consumed by the mail
// services. Implementations never fail: transport problems come back as a
// rejected verdict.
type EmailValidator interface {
	Validate(ctx context.Context, email string) mailboxcheck.Verdict
}

// ContactForm carries the submitted fields. ListOpt arrives from the form
// as the literal string "true"/"false" and is rendered verbatim.
type ContactForm struct {
	Name    string
	Email   string
	Message string
	Subject string
	Phone   string
	ListOpt string
}

// confirmTimeout bounds the detached confirmation send.
var confirmTimeout = 30 * time.Second

// ContactService relays contact-form submissions by email.
type ContactService struct {
	Validator EmailValidator
	Mailer    mail.Sender

	// Inbox is the fixed business address submissions are relayed to.
	Inbox string
	// NoReplyFrom is the sender identity for the confirmation message.
	NoReplyFrom string
}

// Submit validates the sender, relays the submission with its staged
// attachments, and schedules the confirmation. A non-Validated verdict
// returns a RejectionError before any mail is attempted; a primary send
// failure returns the transport error. The submission is not queued or
// retried on failure.
func (s *ContactService) Submit(ctx context.Context, form ContactForm, files []storage.StagedFile) error {
	verdict := s.Validator.Validate(ctx, form.Email)
	if verdict.Status != mailboxcheck.Validated {
		return &RejectionError{Code: verdict.Code}
	}

	msg := mail.Message{
		From:        form.Email,
		To:          s.Inbox,
		ReplyTo:     form.Email,
		Subject:     fmt.Sprintf("Site request: %s: %s, %s", form.Subject, form.Name, form.Email),
		HTML:        contactBodyHTML(form),
		Attachments: attachments(files),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}

	s.confirmAsync(form.Email)
	return nil
}

// confirmAsync sends the thank-you message from a detached goroutine with
// its own deadline, so a slow confirmation cannot hold the response and a
// failed one cannot change it.
func (s *ContactService) confirmAsync(to string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
		defer cancel()

		msg := mail.Message{
			From:    s.NoReplyFrom,
			To:      to,
			ReplyTo: s.NoReplyFrom,
			Subject: "Thank you for contacting us",
			HTML: "<p>Thank you for reaching out! We have received your message" +
				" and will get back to you as soon as possible.</p><br>" +
				"<p><span style=\"color: red\">This is an automated response from an" +
				" unmonitored address; replies will not be received.</span></p>",
		}
		if err := s.Mailer.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("confirmation email failed")
			return
		}
		log.Info().Msg("confirmation email sent")
	}()
}

// contactBodyHTML renders the relayed submission. User fields are escaped;
// the mailing-list flag keeps its legacy green/red styling.
func contactBodyHTML(form ContactForm) string {
	optColor := "red"
	if form.ListOpt == "true" {
		optColor = "green"
	}
	return fmt.Sprintf(
		"<p>%s<br>reply to: %s, phone: %s<br>Mail list?: <span style=\"color: %s\">%s</span></p>",
		html.EscapeString(form.Message),
		html.EscapeString(form.Email),
		html.EscapeString(form.Phone),
		optColor,
		html.EscapeString(form.ListOpt),
	)
}

// attachments maps staged files onto mail attachments under their original
// display names.
func attachments(files []storage.StagedFile) []mail.Attachment {
	if len(files) == 0 {
		return nil
	}
	out := make([]mail.Attachment, 0, len(files))
	for _, f := range files {
		out = append(out, mail.Attachment{Name: f.OriginalName, Path: f.Path})
	}
	return out
}
