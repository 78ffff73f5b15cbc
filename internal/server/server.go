package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/comercia/internal/catalog"
	catalogdomain "github.com/smallbiznis/comercia/internal/catalog/domain"
	"github.com/smallbiznis/comercia/internal/config"
	"github.com/smallbiznis/comercia/internal/idempotency"
	"github.com/smallbiznis/comercia/internal/membership"
	membershipdomain "github.com/smallbiznis/comercia/internal/membership/domain"
	"github.com/smallbiznis/comercia/internal/observability"
	obsmiddleware "github.com/smallbiznis/comercia/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/comercia/internal/observability/metrics"
	obstracing "github.com/smallbiznis/comercia/internal/observability/tracing"
	"github.com/smallbiznis/comercia/internal/order"
	orderdomain "github.com/smallbiznis/comercia/internal/order/domain"
	"github.com/smallbiznis/comercia/internal/subscription"
	subscriptiondomain "github.com/smallbiznis/comercia/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	catalog.Module,
	order.Module,
	subscription.Module,
	membership.Module,
	idempotency.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	catalogSvc      catalogdomain.Service
	orderSvc        orderdomain.Service
	subscriptionSvc subscriptiondomain.Service
	membershipSvc   membershipdomain.Service
	idemGuard       *idempotency.Guard
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	CatalogSvc      catalogdomain.Service
	OrderSvc        orderdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	MembershipSvc   membershipdomain.Service
	IdemGuard       *idempotency.Guard `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		catalogSvc:      p.CatalogSvc,
		orderSvc:        p.OrderSvc,
		subscriptionSvc: p.SubscriptionSvc,
		membershipSvc:   p.MembershipSvc,
		idemGuard:       p.IdemGuard,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", s.OrgContext())

	v1.POST("/checkout", s.IdempotencyGuard("checkout"), s.Checkout)
	v1.GET("/orders", s.ListOrders)
	v1.GET("/orders/:id", s.GetOrder)

	v1.GET("/billing/state", s.BillingState)

	v1.POST("/memberships", s.RegisterMembership)
	v1.POST("/memberships/:id/payments", s.IdempotencyGuard("membership_payment"), s.RecordMembershipPayment)
	v1.PUT("/memberships/:id/due-date", s.SetMembershipDueDate)
	v1.GET("/memberships/:id/payments", s.ListMembershipPayments)

	v1.POST("/products", s.CreateProduct)
	v1.GET("/products", s.ListProducts)
	v1.GET("/products/:id", s.GetProduct)
}
