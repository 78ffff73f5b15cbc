package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/comercia/internal/cache"
	"github.com/smallbiznis/comercia/internal/catalog/domain"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Cache cache.ProductLookupCache `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	cache cache.ProductLookupCache
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
		cache: p.Cache,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.UnitPrice < 0 {
		return nil, domain.ErrInvalidPrice
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now().UTC()
	p := &domain.Product{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Code:        code,
		Name:        name,
		Description: descriptionPtr,
		UnitPrice:   req.UnitPrice,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}

	resp := s.toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	items, err := s.repo.FindAll(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}
	return resp, nil
}

func (s *Service) FindActiveByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Product, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	found := make(map[snowflake.ID]domain.Product, len(ids))
	missing := make([]snowflake.ID, 0, len(ids))

	for _, id := range ids {
		if s.cache == nil {
			missing = append(missing, id)
			continue
		}
		if product, ok := s.cache.GetProduct(orgID.String(), id.String()); ok {
			found[id] = product
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		items, err := s.repo.FindByIDs(ctx, s.db, orgID, missing)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			found[item.ID] = item
			if s.cache != nil {
				s.cache.SetProduct(orgID.String(), item)
			}
		}
	}

	for _, id := range ids {
		product, ok := found[id]
		if !ok || !product.Active {
			return nil, domain.ErrInvalidProduct
		}
	}

	return found, nil
}

func (s *Service) toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:             p.ID.String(),
		OrganizationID: p.OrgID.String(),
		Code:           p.Code,
		Name:           p.Name,
		Description:    p.Description,
		UnitPrice:      p.UnitPrice,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.Metadata != nil {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}

func ptrToString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
