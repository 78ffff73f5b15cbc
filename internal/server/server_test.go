package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/comercia/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/comercia/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/comercia/internal/catalog/service"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/config"
	membershipdomain "github.com/smallbiznis/comercia/internal/membership/domain"
	membershiprepository "github.com/smallbiznis/comercia/internal/membership/repository"
	membershipservice "github.com/smallbiznis/comercia/internal/membership/service"
	"github.com/smallbiznis/comercia/internal/observability"
	orderdomain "github.com/smallbiznis/comercia/internal/order/domain"
	orderrepository "github.com/smallbiznis/comercia/internal/order/repository"
	orderservice "github.com/smallbiznis/comercia/internal/order/service"
	subscriptiondomain "github.com/smallbiznis/comercia/internal/subscription/domain"
	subscriptionrepository "github.com/smallbiznis/comercia/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/comercia/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testServer struct {
	srv   *Server
	node  *snowflake.Node
	clock *clock.FakeClock
	orgID snowflake.ID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Product{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&subscriptiondomain.Subscription{},
		&membershipdomain.MembershipPlan{},
		&membershipdomain.Membership{},
		&membershipdomain.MembershipPayment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	holder := config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig())

	catalogSvc := catalogservice.New(catalogservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fc,
		Repo:  catalogrepository.Provide(),
	})
	orderSvc := orderservice.New(orderservice.Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      fc,
		Repo:       orderrepository.Provide(),
		CatalogSvc: catalogSvc,
		Checkout:   holder,
	})
	subscriptionSvc := subscriptionservice.New(subscriptionservice.Params{
		DB:       db,
		Log:      log,
		Clock:    fc,
		Repo:     subscriptionrepository.Provide(),
		Checkout: holder,
	})
	membershipSvc := membershipservice.New(membershipservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fc,
		Repo:  membershiprepository.Provide(),
	})

	engine := NewEngine(observability.Config{}, nil)
	srv := NewServer(ServerParams{
		Gin:             engine,
		Cfg:             config.Config{},
		DB:              db,
		GenID:           node,
		CatalogSvc:      catalogSvc,
		OrderSvc:        orderSvc,
		SubscriptionSvc: subscriptionSvc,
		MembershipSvc:   membershipSvc,
	})

	return &testServer{srv: srv, node: node, clock: fc, orgID: node.Generate()}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, org bool) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if org {
		req.Header.Set(HeaderOrg, ts.orgID.String())
	}

	w := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(w, req)
	return w
}

func (ts *testServer) createProduct(t *testing.T, code string, price float64) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/products", gin.H{"code": code, "name": code, "unit_price": price}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.ID
}

func TestCheckoutEndpoint(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.createProduct(t, "coffee", 10)

	w := ts.do(t, http.MethodPost, "/v1/checkout", gin.H{
		"items": []gin.H{{"productId": productID, "quantity": 1}},
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		OK          bool    `json:"ok"`
		OrderNumber int     `json:"orderNumber"`
		Total       float64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 1, resp.OrderNumber)
	assert.InDelta(t, 10.0, resp.Total, 1e-9)
}

func TestCheckoutEndpoint_ValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/checkout", gin.H{"items": []gin.H{}}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty_cart")

	ghost := ts.node.Generate().String()
	w = ts.do(t, http.MethodPost, "/v1/checkout", gin.H{
		"items": []gin.H{{"productId": ghost, "quantity": 1}},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_product")
}

func TestMissingOrgHeaderIsUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/orders", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/orders/"+ts.node.Generate().String(), nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBillingStateEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/v1/billing/state", nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"state":"ok"`)
}

func TestMembershipEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/memberships", gin.H{"customerName": "Dana"}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created struct {
		Data struct {
			ID        string `json:"id"`
			NextDueOn string `json:"next_due_on"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "2024-03-15", created.Data.NextDueOn)

	w = ts.do(t, http.MethodPost, "/v1/memberships/"+created.Data.ID+"/payments", nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "2024-04-15")

	w = ts.do(t, http.MethodPut, "/v1/memberships/"+created.Data.ID+"/due-date", gin.H{"nextDueOn": "2024-05-01"}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "2024-05-01")

	w = ts.do(t, http.MethodGet, "/v1/memberships/"+created.Data.ID+"/payments", nil, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
