package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/config"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"github.com/smallbiznis/comercia/internal/subscription/domain"
	"github.com/smallbiznis/comercia/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestState_ReadsRowAndDerives(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:substate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fc := clock.NewFakeClock(now)
	repo := repository.Provide()

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    fc,
		Repo:     repo,
		Checkout: config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig()),
	})

	orgID := node.Generate()
	trialEnd := now.Add(3 * 24 * time.Hour)
	require.NoError(t, repo.Upsert(context.Background(), db, &domain.Subscription{
		ID:         node.Generate(),
		OrgID:      orgID,
		Status:     "trialing",
		TrialEndAt: &trialEnd,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))

	ctx := orgcontext.WithOrgID(context.Background(), orgID)
	state, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingStateTrialEnding, state.State)
	assert.Equal(t, 3, state.TrialDaysLeft)

	// Past the defaulted grace window the same row derives to blocked.
	fc.Set(trialEnd.Add(3*24*time.Hour + time.Minute))
	state, err = svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingStateBlocked, state.State)
}

func TestState_MissingRowIsOK(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:substate_missing?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Subscription{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(time.Now()),
		Repo:     repository.Provide(),
		Checkout: config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig()),
	})

	ctx := orgcontext.WithOrgID(context.Background(), node.Generate())
	state, err := svc.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BillingStateOK, state.State)

	_, err = svc.State(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}
