package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// FindByOrg returns the organization's subscription row, or nil when the
	// organization has never been provisioned with one.
	FindByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*Subscription, error)
	Upsert(ctx context.Context, db *gorm.DB, sub *Subscription) error
}
