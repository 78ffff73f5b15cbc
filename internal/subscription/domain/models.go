// Package domain holds the per-organization subscription record and the
// billing state derivation rules.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Subscription is the single billing record for an organization. The three
// timestamps are the source of truth; Status is written by the billing
// webhook consumer and is only a hint for indexing, never used to derive
// the presented state.
type Subscription struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID              snowflake.ID `gorm:"column:org_id;not null;uniqueIndex:ux_subscriptions_org" json:"organization_id"`
	Status             string       `gorm:"type:text;not null;default:'active'" json:"status"`
	TrialEndAt         *time.Time   `json:"trial_end_at,omitempty"`
	CurrentPeriodEndAt *time.Time   `json:"current_period_end_at,omitempty"`
	GraceUntil         *time.Time   `json:"grace_until,omitempty"`
	PlanAmount         float64      `gorm:"not null;default:0" json:"plan_amount"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
