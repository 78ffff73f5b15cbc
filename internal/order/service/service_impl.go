package service

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	catalogdomain "github.com/smallbiznis/comercia/internal/catalog/domain"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/config"
	obsmetrics "github.com/smallbiznis/comercia/internal/observability/metrics"
	"github.com/smallbiznis/comercia/internal/order/domain"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"github.com/smallbiznis/comercia/pkg/db"
	"github.com/smallbiznis/comercia/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	CatalogSvc catalogdomain.Service
	Checkout   *config.CheckoutConfigHolder
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	catalogSvc catalogdomain.Service
	checkout   *config.CheckoutConfigHolder
	metrics    *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		catalogSvc: p.CatalogSvc,
		checkout:   p.Checkout,
		metrics:    p.Metrics,
	}
}

type cartLine struct {
	productID snowflake.ID
	quantity  int
}

// Checkout validates the cart, allocates the next order number for the
// (org, day) partition and persists the order with snapshot line items.
func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	cfg := s.checkout.Get()

	lines, err := normalizeCart(req.Items, cfg.MaxQuantityPerLine)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.productID)
	}
	products, err := s.catalogSvc.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Round once after the full sum; per-line rounding compounds cent drift.
	var subtotal float64
	for _, line := range lines {
		subtotal += products[line.productID].UnitPrice * float64(line.quantity)
	}
	subtotal = round2(subtotal)
	discount := 0.0
	total := round2(subtotal - discount)

	now := s.clock.Now()
	day := clock.StartOfDayUTC(now)
	completedAt := now

	order := &domain.Order{
		OrgID:         orgID,
		OrderDate:     day,
		SessionToken:  uuid.NewString(),
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		PaymentMethod: normalizePaymentMethod(req.PaymentMethod, cfg),
		PaymentNote:   normalizeNote(req.PaymentNotes, cfg.PaymentNoteMaxLen),
		Status:        domain.OrderStatusCompleted,
		CreatedAt:     now,
		CompletedAt:   &completedAt,
	}

	if err := s.allocateAndInsert(ctx, order, cfg.MaxAllocationAttempts); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		product := products[line.productID]
		items = append(items, domain.OrderItem{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    line.quantity,
			LineTotal:   round2(product.UnitPrice * float64(line.quantity)),
			CreatedAt:   now,
		})
	}
	if err := s.repo.InsertItems(ctx, s.db, items); err != nil {
		// The order row is already committed. Surface the failure instead of
		// hiding it; the caller sees the order exists but is incomplete.
		s.log.Error("order committed but line items failed",
			zap.String("order_id", order.ID.String()),
			zap.Int("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return nil, domain.ErrOrderItemsIncomplete
	}

	s.metrics.RecordOrderCreated(ctx, orgID.String(), order.PaymentMethod)

	return &domain.CheckoutResponse{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
	}, nil
}

// allocateAndInsert runs the bounded optimistic allocation loop. Each attempt
// reads the partition max and inserts with max+1 in one transaction; the
// composite unique index turns a lost race into a duplicate-key error, which
// rolls the attempt back and triggers a fresh read. A failed candidate number
// is never reused without re-reading.
func (s *Service) allocateAndInsert(ctx context.Context, order *domain.Order, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		order.ID = s.genID.Generate()

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			max, err := s.repo.MaxOrderNumber(ctx, tx, order.OrgID, order.OrderDate)
			if err != nil {
				return err
			}
			order.OrderNumber = max + 1
			return s.repo.InsertOrder(ctx, tx, order)
		})
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}

		s.metrics.RecordAllocatorRetry(ctx, order.OrgID.String())
		s.log.Debug("order number collision, retrying",
			zap.Int("attempt", attempt),
			zap.Int("candidate", order.OrderNumber),
		)
	}

	s.metrics.RecordAllocatorExhausted(ctx, order.OrgID.String())
	s.log.Warn("order number allocation exhausted",
		zap.String("org_id", order.OrgID.String()),
		zap.Int("attempts", maxAttempts),
	)
	return domain.ErrOrderNumberContention
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.OrderResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	order, err := s.repo.FindByID(ctx, s.db, orgID, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	items, err := s.repo.FindItems(ctx, s.db, orgID, orderID)
	if err != nil {
		return nil, err
	}

	resp := toOrderResponse(order)
	resp.Items = make([]domain.OrderItemResponse, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, domain.OrderItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrdersRequest) (*domain.ListOrdersResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	filter := domain.ListFilter{
		Day:      req.Day,
		PageSize: req.PageSize,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.AfterID = afterID
	}

	orders, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	page, pageInfo := pagination.BuildCursorPageInfo(orders, filter.PageSize, func(o domain.Order) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: o.ID.String()})
		return token
	})

	resp := &domain.ListOrdersResponse{PageInfo: pageInfo}
	resp.Orders = make([]domain.OrderResponse, 0, len(page))
	for _, o := range page {
		resp.Orders = append(resp.Orders, toOrderResponse(&o))
	}
	return resp, nil
}

func normalizeCart(items []domain.CheckoutItemRequest, maxQuantity int) ([]cartLine, error) {
	merged := make(map[snowflake.ID]int, len(items))
	lines := make([]cartLine, 0, len(items))

	for _, item := range items {
		raw := strings.TrimSpace(item.ProductID)
		if raw == "" {
			continue
		}
		productID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, catalogdomain.ErrInvalidProduct
		}
		if item.Quantity < 1 || item.Quantity > maxQuantity {
			return nil, domain.ErrInvalidQuantity
		}
		if _, seen := merged[productID]; !seen {
			lines = append(lines, cartLine{productID: productID})
		}
		merged[productID] += item.Quantity
	}

	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	for i := range lines {
		quantity := merged[lines[i].productID]
		if quantity > maxQuantity {
			return nil, domain.ErrInvalidQuantity
		}
		lines[i].quantity = quantity
	}
	return lines, nil
}

func normalizePaymentMethod(method string, cfg config.CheckoutConfig) string {
	method = strings.ToLower(strings.TrimSpace(method))
	for _, allowed := range cfg.PaymentMethods {
		if method == strings.ToLower(strings.TrimSpace(allowed)) {
			return method
		}
	}
	return cfg.DefaultPaymentMethod
}

func normalizeNote(note string, maxLen int) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	// The cap is in characters, not bytes; a byte slice would split
	// multi-byte runes.
	if maxLen > 0 && utf8.RuneCountInString(note) > maxLen {
		note = string([]rune(note)[:maxLen])
	}
	return &note
}

func toOrderResponse(o *domain.Order) domain.OrderResponse {
	return domain.OrderResponse{
		ID:            o.ID.String(),
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.OrderDate,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		PaymentNote:   o.PaymentNote,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
