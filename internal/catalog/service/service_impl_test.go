package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/comercia/internal/cache"
	"github.com/smallbiznis/comercia/internal/catalog/domain"
	"github.com/smallbiznis/comercia/internal/catalog/repository"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"github.com/smallbiznis/comercia/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db    *gorm.DB
	node  *snowflake.Node
	cache cache.ProductLookupCache
	svc   domain.Service
	orgID snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	lookupCache := cache.NewProductLookupCache()
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
		Cache: lookupCache,
	})

	return &testEnv{db: db, node: node, cache: lookupCache, svc: svc, orgID: node.Generate()}
}

func (e *testEnv) ctx() context.Context {
	return orgcontext.WithOrgID(context.Background(), e.orgID)
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx(), domain.CreateRequest{Code: "", Name: "Coffee"})
	assert.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = env.svc.Create(env.ctx(), domain.CreateRequest{Code: "coffee", Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = env.svc.Create(env.ctx(), domain.CreateRequest{Code: "coffee", Name: "Coffee", UnitPrice: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = env.svc.Create(context.Background(), domain.CreateRequest{Code: "coffee", Name: "Coffee"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestCreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.svc.Create(env.ctx(), domain.CreateRequest{
		Code:      "coffee",
		Name:      "Coffee",
		UnitPrice: 3.5,
		Metadata:  map[string]any{"category": "drinks"},
	})
	require.NoError(t, err)
	assert.True(t, created.Active)

	got, err := env.svc.Get(env.ctx(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Name)
	assert.InDelta(t, 3.5, got.UnitPrice, 1e-9)
	assert.Equal(t, "drinks", got.Metadata["category"])

	_, err = env.svc.Get(env.ctx(), env.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Get(env.ctx(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestCreate_DuplicateCodePerOrgRejected(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx(), domain.CreateRequest{Code: "coffee", Name: "Coffee", UnitPrice: 3.5})
	require.NoError(t, err)

	// The unique index must hold on migrated schemas, not just postgres.
	_, err = env.svc.Create(env.ctx(), domain.CreateRequest{Code: "coffee", Name: "Other Coffee", UnitPrice: 4})
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))

	otherCtx := orgcontext.WithOrgID(context.Background(), env.node.Generate())
	_, err = env.svc.Create(otherCtx, domain.CreateRequest{Code: "coffee", Name: "Coffee", UnitPrice: 3.5})
	assert.NoError(t, err)
}

func TestList_ScopedToOrg(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx(), domain.CreateRequest{Code: "coffee", Name: "Coffee", UnitPrice: 3.5})
	require.NoError(t, err)

	otherCtx := orgcontext.WithOrgID(context.Background(), env.node.Generate())
	_, err = env.svc.Create(otherCtx, domain.CreateRequest{Code: "tea", Name: "Tea", UnitPrice: 2})
	require.NoError(t, err)

	mine, err := env.svc.List(env.ctx())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "coffee", mine[0].Code)
}

func TestFindActiveByIDs(t *testing.T) {
	env := newTestEnv(t)

	coffee, err := env.svc.Create(env.ctx(), domain.CreateRequest{Code: "coffee", Name: "Coffee", UnitPrice: 3.5})
	require.NoError(t, err)
	inactive := false
	retired, err := env.svc.Create(env.ctx(), domain.CreateRequest{Code: "retired", Name: "Retired", UnitPrice: 1, Active: &inactive})
	require.NoError(t, err)

	coffeeID, _ := snowflake.ParseString(coffee.ID)
	retiredID, _ := snowflake.ParseString(retired.ID)

	found, err := env.svc.FindActiveByIDs(env.ctx(), []snowflake.ID{coffeeID})
	require.NoError(t, err)
	assert.InDelta(t, 3.5, found[coffeeID].UnitPrice, 1e-9)

	_, err = env.svc.FindActiveByIDs(env.ctx(), []snowflake.ID{coffeeID, retiredID})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	_, err = env.svc.FindActiveByIDs(env.ctx(), []snowflake.ID{env.node.Generate()})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestFindActiveByIDs_ServesFromCacheUntilInvalidated(t *testing.T) {
	env := newTestEnv(t)

	coffee, err := env.svc.Create(env.ctx(), domain.CreateRequest{Code: "coffee", Name: "Coffee", UnitPrice: 3.5})
	require.NoError(t, err)
	coffeeID, _ := snowflake.ParseString(coffee.ID)

	// First lookup goes to the database and fills the cache.
	_, err = env.svc.FindActiveByIDs(env.ctx(), []snowflake.ID{coffeeID})
	require.NoError(t, err)

	// Deactivate behind the cache's back; the entry keeps serving until it
	// expires or is invalidated.
	require.NoError(t, env.db.Exec("UPDATE products SET active = ? WHERE id = ?", false, coffeeID).Error)

	_, err = env.svc.FindActiveByIDs(env.ctx(), []snowflake.ID{coffeeID})
	require.NoError(t, err)

	env.cache.InvalidateProduct(env.orgID.String(), coffee.ID)
	_, err = env.svc.FindActiveByIDs(env.ctx(), []snowflake.ID{coffeeID})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}
