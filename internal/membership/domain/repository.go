package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, m *Membership) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Membership, error)
	// FindByIDForUpdate locks the membership row for the duration of the
	// surrounding transaction on dialects that support row locks.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Membership, error)
	UpdateRenewal(ctx context.Context, db *gorm.DB, m *Membership) error
	SetDueDate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, due time.Time, updatedAt time.Time) (int64, error)

	FindPlan(ctx context.Context, db *gorm.DB, orgID, planID snowflake.ID) (*MembershipPlan, error)
	InsertPlan(ctx context.Context, db *gorm.DB, plan *MembershipPlan) error

	InsertPayment(ctx context.Context, db *gorm.DB, p *MembershipPayment) error
	ListPayments(ctx context.Context, db *gorm.DB, orgID, membershipID snowflake.ID) ([]MembershipPayment, error)
}
