package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/comercia/internal/clock"
	"github.com/smallbiznis/comercia/internal/membership/domain"
	obsmetrics "github.com/smallbiznis/comercia/internal/observability/metrics"
	"github.com/smallbiznis/comercia/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("membership.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.MembershipResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	customerID := s.genID.Generate()
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		customerID = parsed
	}

	var planID *snowflake.ID
	if req.PlanID != nil && strings.TrimSpace(*req.PlanID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.PlanID))
		if err != nil {
			return nil, domain.ErrInvalidPlan
		}
		plan, err := s.repo.FindPlan(ctx, s.db, orgID, parsed)
		if err != nil {
			return nil, err
		}
		if plan == nil || !plan.Active {
			return nil, domain.ErrInvalidPlan
		}
		planID = &parsed
	}

	now := s.clock.Now()
	due := clock.StartOfDayUTC(now)
	if req.NextDueOn != nil && strings.TrimSpace(*req.NextDueOn) != "" {
		parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(*req.NextDueOn), time.UTC)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		due = parsed
	}

	m := &domain.Membership{
		ID:           s.genID.Generate(),
		OrgID:        orgID,
		CustomerID:   customerID,
		CustomerName: name,
		PlanID:       planID,
		Status:       domain.MembershipStatusActive,
		NextDueOn:    &due,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, m); err != nil {
		return nil, err
	}

	resp := toMembershipResponse(m)
	return &resp, nil
}

// RecordPayment runs load, payment insert and due-date advance in a single
// transaction so two clerks recording the same payment cannot both advance
// from the same base date.
func (s *Service) RecordPayment(ctx context.Context, membershipID string, req domain.RecordPaymentRequest) (*domain.MembershipResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(membershipID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	now := s.clock.Now()
	today := clock.StartOfDayUTC(now)

	var m *domain.Membership
	var planless bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err = s.repo.FindByIDForUpdate(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if m == nil {
			return domain.ErrMembershipNotFound
		}

		months := 1
		amount := 0.0
		planless = true
		if m.PlanID != nil {
			plan, err := s.repo.FindPlan(ctx, tx, orgID, *m.PlanID)
			if err != nil {
				return err
			}
			if plan != nil {
				planless = false
				amount = plan.Price
				if plan.BillingMonths > 0 {
					months = plan.BillingMonths
				}
			}
		}

		base := today
		if m.NextDueOn != nil {
			base = clock.StartOfDayUTC(*m.NextDueOn)
		}
		nextDue := clock.AddMonths(base, months)

		payment := &domain.MembershipPayment{
			ID:           s.genID.Generate(),
			OrgID:        orgID,
			MembershipID: m.ID,
			CustomerID:   m.CustomerID,
			Amount:       amount,
			Note:         normalizeNote(req.Note),
			PaidAt:       now,
		}
		if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
			return err
		}

		m.Status = domain.MembershipStatusActive
		m.NextDueOn = &nextDue
		m.LastPaidOn = &today
		m.UpdatedAt = now
		return s.repo.UpdateRenewal(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMembershipPayment(ctx, orgID.String(), planless)

	resp := toMembershipResponse(m)
	return &resp, nil
}

func (s *Service) SetDueDate(ctx context.Context, membershipID string, req domain.SetDueDateRequest) (*domain.MembershipResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(membershipID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	due, err := time.ParseInLocation(dateLayout, strings.TrimSpace(req.NextDueOn), time.UTC)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	affected, err := s.repo.SetDueDate(ctx, s.db, orgID, id, due, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrMembershipNotFound
	}

	m, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrMembershipNotFound
	}

	resp := toMembershipResponse(m)
	return &resp, nil
}

func (s *Service) ListPayments(ctx context.Context, membershipID string) ([]domain.PaymentResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(membershipID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	m, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrMembershipNotFound
	}

	payments, err := s.repo.ListPayments(ctx, s.db, orgID, id)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, domain.PaymentResponse{
			ID:           p.ID.String(),
			MembershipID: p.MembershipID.String(),
			Amount:       p.Amount,
			Note:         p.Note,
			PaidAt:       p.PaidAt,
		})
	}
	return out, nil
}

func normalizeNote(note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil
	}
	return &note
}

func toMembershipResponse(m *domain.Membership) domain.MembershipResponse {
	resp := domain.MembershipResponse{
		ID:           m.ID.String(),
		CustomerID:   m.CustomerID.String(),
		CustomerName: m.CustomerName,
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt,
	}
	if m.PlanID != nil {
		planID := m.PlanID.String()
		resp.PlanID = &planID
	}
	resp.NextDueOn = fmtDate(m.NextDueOn)
	resp.LastPaidOn = fmtDate(m.LastPaidOn)
	return resp
}

func fmtDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}
