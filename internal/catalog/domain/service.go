package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context) ([]Response, error)
	// FindActiveByIDs resolves products for checkout. Every requested ID must
	// exist, belong to the org and be active; otherwise ErrInvalidProduct.
	FindActiveByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Product, error)
}

type CreateRequest struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	UnitPrice   float64        `json:"unit_price"`
	Active      *bool          `json:"active"`
	Metadata    map[string]any `json:"metadata"`
}

type Response struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	Description    *string        `json:"description,omitempty"`
	UnitPrice      float64        `json:"unit_price"`
	Active         bool           `json:"active"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCode         = errors.New("invalid_code")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidProduct      = errors.New("invalid_product")
	ErrNotFound            = errors.New("not_found")
)
