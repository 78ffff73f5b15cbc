package domain

import (
	"context"
	"errors"
	"time"
)

type RegisterRequest struct {
	CustomerID   string  `json:"customerId,omitempty"`
	CustomerName string  `json:"customerName"`
	PlanID       *string `json:"planId,omitempty"`
	NextDueOn    *string `json:"nextDueOn,omitempty"` // YYYY-MM-DD, defaults to today
}

type RecordPaymentRequest struct {
	Note string `json:"note,omitempty"`
}

type SetDueDateRequest struct {
	NextDueOn string `json:"nextDueOn"` // YYYY-MM-DD
}

type MembershipResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	PlanID       *string   `json:"plan_id,omitempty"`
	Status       string    `json:"status"`
	NextDueOn    *string   `json:"next_due_on,omitempty"`
	LastPaidOn   *string   `json:"last_paid_on,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type PaymentResponse struct {
	ID           string    `json:"id"`
	MembershipID string    `json:"membership_id"`
	Amount       float64   `json:"amount"`
	Note         *string   `json:"note,omitempty"`
	PaidAt       time.Time `json:"paid_at"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*MembershipResponse, error)
	// RecordPayment inserts a payment event and advances the due date by the
	// plan's billing period, or one month when the membership has no plan.
	RecordPayment(ctx context.Context, membershipID string, req RecordPaymentRequest) (*MembershipResponse, error)
	// SetDueDate overwrites the due date without any monotonicity check.
	SetDueDate(ctx context.Context, membershipID string, req SetDueDateRequest) (*MembershipResponse, error)
	ListPayments(ctx context.Context, membershipID string) ([]PaymentResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidPlan         = errors.New("invalid_plan")
	ErrMembershipNotFound  = errors.New("membership_not_found")
)
