// Package domain defines the persistence models of the application. The only
// durable entity is the mailing-list subscriber record; everything else the
// server touches is relayed or cached in memory.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Subscriber is a mailing-list membership record. Rows are created on the
// first subscribe for an address and flipped (never deleted) on unsubscribe,
// keeping the latest feedback the user left on the way out.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: the subscriber address; unique, lookups are by email.
//   - Subscribed: current membership state.
//   - Feedback: optional free-text reason captured on unsubscribe.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Subscriber struct {
	ID         string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Email      string         `json:"email"      gorm:"type:varchar(254);not null;uniqueIndex:ux_subscribers_email"`
	Subscribed bool           `json:"subscribed" gorm:"not null;default:true"`
	Feedback   string         `json:"feedback,omitempty" gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Subscriber.
func (Subscriber) TableName() string { return "subscribers" }
