package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/comercia/pkg/db/pagination"
)

type CheckoutItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Items         []CheckoutItemRequest `json:"items"`
	PaymentMethod string                `json:"paymentMethod,omitempty"`
	PaymentNotes  string                `json:"paymentNotes,omitempty"`
}

type CheckoutResponse struct {
	OrderID     string  `json:"orderId"`
	OrderNumber int     `json:"orderNumber"`
	Total       float64 `json:"total"`
}

type ListOrdersRequest struct {
	Day       *time.Time
	PageToken string
	PageSize  int
}

type ListOrdersResponse struct {
	pagination.PageInfo
	Orders []OrderResponse `json:"orders"`
}

type OrderItemResponse struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"line_total"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	OrderNumber   int                 `json:"order_number"`
	OrderDate     time.Time           `json:"order_date"`
	Subtotal      float64             `json:"subtotal"`
	Discount      float64             `json:"discount"`
	Total         float64             `json:"total"`
	PaymentMethod string              `json:"payment_method"`
	PaymentNote   *string             `json:"payment_note,omitempty"`
	Status        OrderStatus         `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []OrderItemResponse `json:"items,omitempty"`
}

type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
	GetByID(ctx context.Context, id string) (*OrderResponse, error)
	List(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error)
}

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrEmptyCart             = errors.New("empty_cart")
	ErrInvalidQuantity       = errors.New("invalid_quantity")
	ErrInvalidID             = errors.New("invalid_id")
	ErrOrderNotFound         = errors.New("order_not_found")
	ErrOrderNumberContention = errors.New("order_number_contention")
	ErrOrderItemsIncomplete  = errors.New("order_items_incomplete")
)
