package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Day      *time.Time
	AfterID  snowflake.ID
	PageSize int
}

type Repository interface {
	// MaxOrderNumber returns the highest order number allocated for the
	// (org, day) partition, or 0 when the partition is empty.
	MaxOrderNumber(ctx context.Context, db *gorm.DB, orgID snowflake.ID, day time.Time) (int, error)
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Order, error)
	FindItems(ctx context.Context, db *gorm.DB, orgID, orderID snowflake.ID) ([]OrderItem, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter) ([]Order, error)
}
