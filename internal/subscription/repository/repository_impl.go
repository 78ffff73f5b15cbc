package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/comercia/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, status, trial_end_at, current_period_end_at,
		        grace_until, plan_amount, created_at, updated_at
		 FROM subscriptions WHERE org_id = ?`,
		orgID,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, org_id, status, trial_end_at, current_period_end_at,
			grace_until, plan_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (org_id) DO UPDATE SET
			status = EXCLUDED.status,
			trial_end_at = EXCLUDED.trial_end_at,
			current_period_end_at = EXCLUDED.current_period_end_at,
			grace_until = EXCLUDED.grace_until,
			plan_amount = EXCLUDED.plan_amount,
			updated_at = EXCLUDED.updated_at`,
		sub.ID,
		sub.OrgID,
		sub.Status,
		sub.TrialEndAt,
		sub.CurrentPeriodEndAt,
		sub.GraceUntil,
		sub.PlanAmount,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Error
}
