// Package domain contains persistence models for point-of-sale orders.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderStatus represents lifecycle states for an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// Payment methods accepted at checkout. Unknown methods fall back to cash.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodOther    = "other"
)

// Order is one completed or in-flight sale. OrderNumber is unique only within
// the (org, order_date) partition; the composite unique index is what makes
// concurrent number allocation safe.
type Order struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID `gorm:"not null;index;uniqueIndex:ux_orders_org_day_number,priority:1" json:"organization_id"`
	OrderDate    time.Time    `gorm:"type:date;not null;uniqueIndex:ux_orders_org_day_number,priority:2" json:"order_date"`
	OrderNumber  int          `gorm:"not null;uniqueIndex:ux_orders_org_day_number,priority:3" json:"order_number"`
	SessionToken string       `gorm:"type:text;not null" json:"-"`
	Subtotal     float64      `gorm:"not null" json:"subtotal"`
	Discount     float64      `gorm:"not null;default:0" json:"discount"`
	Total        float64      `gorm:"not null" json:"total"`
	PaymentMethod string      `gorm:"type:text;not null" json:"payment_method"`
	PaymentNote  *string      `gorm:"type:text" json:"payment_note,omitempty"`
	Status       OrderStatus  `gorm:"type:text;not null" json:"status"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CompletedAt  *time.Time   `gorm:"" json:"completed_at,omitempty"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderItem is one line of an order. ProductName and UnitPrice are snapshots
// taken at sale time; later catalog edits never change historical orders.
type OrderItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID `gorm:"not null;index" json:"organization_id"`
	OrderID     snowflake.ID `gorm:"not null;index" json:"order_id"`
	ProductID   snowflake.ID `gorm:"not null" json:"product_id"`
	ProductName string       `gorm:"type:text;not null" json:"product_name"`
	UnitPrice   float64      `gorm:"not null" json:"unit_price"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	LineTotal   float64      `gorm:"not null" json:"line_total"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }
