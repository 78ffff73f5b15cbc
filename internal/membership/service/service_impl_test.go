package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/membership/domain"
	"github.com/smallbiznis/comercia/internal/membership/repository"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	repo  domain.Repository
	svc   domain.Service
	orgID snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Membership{},
		&domain.MembershipPlan{},
		&domain.MembershipPayment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
	repo := repository.Provide()

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  repo,
	})

	return &testEnv{db: db, node: node, clock: fc, repo: repo, svc: svc, orgID: node.Generate()}
}

func (e *testEnv) ctx() context.Context {
	return orgcontext.WithOrgID(context.Background(), e.orgID)
}

func (e *testEnv) addPlan(t *testing.T, name string, months int, price float64) snowflake.ID {
	t.Helper()
	id := e.node.Generate()
	require.NoError(t, e.repo.InsertPlan(context.Background(), e.db, &domain.MembershipPlan{
		ID:            id,
		OrgID:         e.orgID,
		Name:          name,
		BillingMonths: months,
		Price:         price,
		Active:        true,
		CreatedAt:     e.clock.Now(),
	}))
	return id
}

func TestRegister_DefaultsDueDateToToday(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana"})
	require.NoError(t, err)

	require.NotNil(t, m.NextDueOn)
	assert.Equal(t, "2024-01-15", *m.NextDueOn)
	assert.Equal(t, string(domain.MembershipStatusActive), m.Status)
	assert.Nil(t, m.PlanID)
	assert.Nil(t, m.LastPaidOn)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	badDate := "15/01/2024"
	_, err = env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana", NextDueOn: &badDate})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	ghostPlan := env.node.Generate().String()
	_, err = env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana", PlanID: &ghostPlan})
	assert.ErrorIs(t, err, domain.ErrInvalidPlan)

	_, err = env.svc.Register(context.Background(), domain.RegisterRequest{CustomerName: "Dana"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestRecordPayment_PlanlessDefaultsToFreeMonthly(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana"})
	require.NoError(t, err)

	paid, err := env.svc.RecordPayment(env.ctx(), m.ID, domain.RecordPaymentRequest{Note: "cash at desk"})
	require.NoError(t, err)

	assert.Equal(t, "2024-02-15", *paid.NextDueOn)
	assert.Equal(t, "2024-01-15", *paid.LastPaidOn)

	payments, err := env.svc.ListPayments(env.ctx(), m.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Zero(t, payments[0].Amount)
	require.NotNil(t, payments[0].Note)
	assert.Equal(t, "cash at desk", *payments[0].Note)
}

func TestRecordPayment_PlanAdvancesByBillingMonths(t *testing.T) {
	env := newTestEnv(t)
	planID := env.addPlan(t, "Quarterly", 3, 150)
	plan := planID.String()

	m, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana", PlanID: &plan})
	require.NoError(t, err)

	paid, err := env.svc.RecordPayment(env.ctx(), m.ID, domain.RecordPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-15", *paid.NextDueOn)

	payments, err := env.svc.ListPayments(env.ctx(), m.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.InDelta(t, 150.0, payments[0].Amount, 1e-9)
}

func TestRecordPayment_ClampsShortMonths(t *testing.T) {
	env := newTestEnv(t)

	due := "2024-01-31"
	m, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana", NextDueOn: &due})
	require.NoError(t, err)

	paid, err := env.svc.RecordPayment(env.ctx(), m.ID, domain.RecordPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", *paid.NextDueOn)
}

func TestRecordPayment_DueDatesNonDecreasing(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana"})
	require.NoError(t, err)

	prev := *m.NextDueOn
	for i := 0; i < 6; i++ {
		paid, err := env.svc.RecordPayment(env.ctx(), m.ID, domain.RecordPaymentRequest{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, *paid.NextDueOn, prev)
		prev = *paid.NextDueOn
	}
	assert.Equal(t, "2024-07-15", prev)

	payments, err := env.svc.ListPayments(env.ctx(), m.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 6)
}

func TestRecordPayment_AdvancesFromDueDateNotToday(t *testing.T) {
	env := newTestEnv(t)

	// Member pays two weeks before the due date; the new due date is a month
	// after the old due date, not a month after the payment day.
	due := "2024-02-01"
	m, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana", NextDueOn: &due})
	require.NoError(t, err)

	paid, err := env.svc.RecordPayment(env.ctx(), m.ID, domain.RecordPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", *paid.NextDueOn)
}

func TestSetDueDate_OverwritesWithoutMonotonicity(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.svc.Register(env.ctx(), domain.RegisterRequest{CustomerName: "Dana"})
	require.NoError(t, err)

	// Operators may move the date backward.
	updated, err := env.svc.SetDueDate(env.ctx(), m.ID, domain.SetDueDateRequest{NextDueOn: "2023-12-01"})
	require.NoError(t, err)
	assert.Equal(t, "2023-12-01", *updated.NextDueOn)

	_, err = env.svc.SetDueDate(env.ctx(), env.node.Generate().String(), domain.SetDueDateRequest{NextDueOn: "2024-02-01"})
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	_, err = env.svc.SetDueDate(env.ctx(), m.ID, domain.SetDueDateRequest{NextDueOn: "soon"})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestListPayments_UnknownMembership(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ListPayments(env.ctx(), env.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)

	_, err = env.svc.ListPayments(env.ctx(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestRecordPayment_UnknownMembership(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RecordPayment(env.ctx(), env.node.Generate().String(), domain.RecordPaymentRequest{})
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}
