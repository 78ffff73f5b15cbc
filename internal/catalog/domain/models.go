// Package domain contains persistence models for the merchant catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Product is a sellable catalog entry. Checkout snapshots name and unit price
// into order lines, so historical orders survive later catalog edits.
type Product struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID      `gorm:"column:org_id;not null;uniqueIndex:ux_products_org_code,priority:1" json:"organization_id"`
	Code        string            `gorm:"type:text;not null;uniqueIndex:ux_products_org_code,priority:2" json:"code"`
	Name        string            `gorm:"type:text;not null" json:"name"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	UnitPrice   float64           `gorm:"not null" json:"unit_price"`
	Active      bool              `gorm:"not null;default:true" json:"active"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }
