// Package services – NewsletterService
//
// Subscribe and unsubscribe follow the same two-phase shape as the contact
// relay: validate the address, notify the business inbox, then confirm to
// the user from a detached goroutine. As a supplement the service keeps a
// local subscriber record per address; that bookkeeping is best-effort and
// a database error never fails the request.
package services

import (
	"context"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ewg-studio/go-site-backend/internal/clients/mailboxcheck"
	"github.com/ewg-studio/go-site-backend/internal/mail"
	"github.com/ewg-studio/go-site-backend/internal/repo"
)

// NewsletterService handles mailing-list membership requests.
type NewsletterService struct {
	DB        *gorm.DB
	Validator EmailValidator
	Mailer    mail.Sender

	// Inbox is the fixed business address notified of membership changes.
	Inbox string
	// NoReplyFrom is the sender identity for confirmations.
	NoReplyFrom string
}

// Subscribe validates the address, notifies the business inbox, records the
// membership, and schedules a confirmation to the subscriber.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) error {
	verdict := s.Validator.Validate(ctx, email)
	if verdict.Status != mailboxcheck.Validated {
		return &RejectionError{Code: verdict.Code}
	}

	msg := mail.Message{
		From:    email,
		To:      s.Inbox,
		ReplyTo: email,
		Subject: fmt.Sprintf("Newsletter subscription: %s", email),
		HTML:    fmt.Sprintf("<p>New mailing list subscription from %s</p>", html.EscapeString(email)),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send subscribe notification: %w", err)
	}

	s.record(ctx, func(ctx context.Context) error {
		_, err := repo.UpsertSubscriber(ctx, s.DB, email)
		return err
	})

	s.confirmAsync(email,
		"Welcome to the mailing list",
		"<p>Thanks for subscribing! You will hear from us when there is news"+
			" worth sharing. You can unsubscribe at any time from the site.</p>")
	return nil
}

// Unsubscribe validates the address, notifies the business inbox with the
// submitted feedback, records the removal, and confirms to the user.
func (s *NewsletterService) Unsubscribe(ctx context.Context, email, feedback string) error {
	verdict := s.Validator.Validate(ctx, email)
	if verdict.Status != mailboxcheck.Validated {
		return &RejectionError{Code: verdict.Code}
	}

	msg := mail.Message{
		From:    email,
		To:      s.Inbox,
		ReplyTo: email,
		Subject: fmt.Sprintf("Newsletter unsubscribe: %s", email),
		HTML: fmt.Sprintf("<p>%s has left the mailing list.<br>Feedback: %s</p>",
			html.EscapeString(email), html.EscapeString(feedback)),
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send unsubscribe notification: %w", err)
	}

	s.record(ctx, func(ctx context.Context) error {
		_, err := repo.MarkUnsubscribed(ctx, s.DB, email, feedback)
		return err
	})

	s.confirmAsync(email,
		"You have been unsubscribed",
		"<p>You have been removed from the mailing list. Sorry to see you go.</p>")
	return nil
}

// record runs a bookkeeping write when a DB is configured; failures are
// logged only.
func (s *NewsletterService) record(ctx context.Context, fn func(context.Context) error) {
	if s.DB == nil {
		return
	}
	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Msg("subscriber bookkeeping failed")
	}
}

// confirmAsync mirrors ContactService.confirmAsync for the narrower
// newsletter bodies.
func (s *NewsletterService) confirmAsync(to, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
		defer cancel()

		msg := mail.Message{
			From:    s.NoReplyFrom,
			To:      to,
			ReplyTo: s.NoReplyFrom,
			Subject: subject,
			HTML:    body,
		}
		if err := s.Mailer.Send(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("newsletter confirmation failed")
		}
	}()
}
