// Package domain holds recurring membership records and their payment
// events. A membership is the store's own billing relationship with one of
// its customers, driven by a due date rather than by the platform
// subscription.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type MembershipStatus string

const (
	MembershipStatusActive   MembershipStatus = "ACTIVE"
	MembershipStatusInactive MembershipStatus = "INACTIVE"
)

// MembershipPlan prices a recurring membership. BillingMonths is how many
// calendar months one payment buys.
type MembershipPlan struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID `gorm:"column:org_id;not null;index" json:"organization_id"`
	Name          string       `gorm:"type:text;not null" json:"name"`
	BillingMonths int          `gorm:"not null;default:1" json:"billing_months"`
	Price         float64      `gorm:"not null;default:0" json:"price"`
	Active        bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (MembershipPlan) TableName() string { return "membership_plans" }

// Membership ties a customer to an optional plan. PlanID may be nil; a
// plan-less membership still renews monthly at zero amount when a payment
// is recorded.
type Membership struct {
	ID           snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID     `gorm:"column:org_id;not null;index" json:"organization_id"`
	CustomerID   snowflake.ID     `gorm:"not null;index" json:"customer_id"`
	CustomerName string           `gorm:"type:text;not null" json:"customer_name"`
	PlanID       *snowflake.ID    `gorm:"index" json:"plan_id,omitempty"`
	Status       MembershipStatus `gorm:"type:text;not null" json:"status"`
	NextDueOn    *time.Time       `gorm:"type:date" json:"next_due_on,omitempty"`
	LastPaidOn   *time.Time       `gorm:"type:date" json:"last_paid_on,omitempty"`
	CreatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Membership) TableName() string { return "memberships" }

// MembershipPayment is append-only. Rows are never updated or deleted.
type MembershipPayment struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"column:org_id;not null;index" json:"organization_id"`
	MembershipID snowflake.ID `gorm:"not null;index" json:"membership_id"`
	CustomerID   snowflake.ID `gorm:"not null" json:"customer_id"`
	Amount       float64      `gorm:"not null" json:"amount"`
	Note         *string      `gorm:"type:text" json:"note,omitempty"`
	PaidAt       time.Time    `gorm:"not null" json:"paid_at"`
}

// TableName sets the database table name.
func (MembershipPayment) TableName() string { return "membership_payments" }
