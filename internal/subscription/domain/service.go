package domain

import (
	"context"
	"errors"
)

type Service interface {
	// State derives the current billing state for the organization in ctx.
	State(ctx context.Context) (*DerivedState, error)
}

var ErrInvalidOrganization = errors.New("invalid_organization")
