package service

import (
	"context"

	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/config"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"github.com/smallbiznis/comercia/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Checkout *config.CheckoutConfigHolder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	checkout *config.CheckoutConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		checkout: p.Checkout,
	}
}

func (s *Service) State(ctx context.Context) (*domain.DerivedState, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	sub, err := s.repo.FindByOrg(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// Organizations provisioned before billing went live have no
		// subscription row. They are not blocked.
		state := domain.DerivedState{State: domain.BillingStateOK}
		return &state, nil
	}

	state := domain.DeriveState(*sub, s.clock.Now(), s.checkout.Get().GraceDays)
	return &state, nil
}
