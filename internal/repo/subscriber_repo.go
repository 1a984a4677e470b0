// Subscriber repository: mailing-list membership records keyed by email.
// Subscribe re-activates an existing row instead of inserting a duplicate;
// unsubscribe flips the flag and keeps the feedback, never deleting the row.
package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ewg-studio/go-site-backend/internal/domain"
)

// GetSubscriber fetches a subscriber by (normalized) email.
func GetSubscriber(ctx context.Context, db *gorm.DB, email string) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpsertSubscriber creates a subscriber row for email, or re-activates the
// existing one. Re-subscribing clears any previous unsubscribe feedback.
func UpsertSubscriber(ctx context.Context, db *gorm.DB, email string) (*domain.Subscriber, error) {
	email = normalizeEmail(email)

	sub, err := GetSubscriber(ctx, db, email)
	switch {
	case err == nil:
		sub.Subscribed = true
		sub.Feedback = ""
		if err := db.WithContext(ctx).Save(sub).Error; err != nil {
			return nil, err
		}
		return sub, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = &domain.Subscriber{
			ID:         uuid.NewString(),
			Email:      email,
			Subscribed: true,
		}
		if err := db.WithContext(ctx).Create(sub).Error; err != nil {
			return nil, err
		}
		return sub, nil
	default:
		return nil, err
	}
}

// MarkUnsubscribed flips the subscriber off and records the exit feedback.
// Unsubscribing an address that was never subscribed still creates a row, so
// the suppression survives a later import of the address.
func MarkUnsubscribed(ctx context.Context, db *gorm.DB, email, feedback string) (*domain.Subscriber, error) {
	email = normalizeEmail(email)

	sub, err := GetSubscriber(ctx, db, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = &domain.Subscriber{
			ID:         uuid.NewString(),
			Email:      email,
			Subscribed: false,
			Feedback:   feedback,
		}
		if err := db.WithContext(ctx).Create(sub).Error; err != nil {
			return nil, err
		}
		return sub, nil
	}
	if err != nil {
		return nil, err
	}

	sub.Subscribed = false
	sub.Feedback = feedback
	if err := db.WithContext(ctx).Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// CountActiveSubscribers returns the number of currently subscribed rows.
func CountActiveSubscribers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Subscriber{}).
		Where("subscribed = ?", true).
		Count(&n).Error
	return n, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
