package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/comercia/internal/membership/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *domain.Membership) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO memberships (
			id, org_id, customer_id, customer_name, plan_id,
			status, next_due_on, last_paid_on, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.OrgID,
		m.CustomerID,
		m.CustomerName,
		m.PlanID,
		m.Status,
		m.NextDueOn,
		m.LastPaidOn,
		m.CreatedAt,
		m.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Membership, error) {
	return r.find(ctx, db, orgID, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Membership, error) {
	return r.find(ctx, db, orgID, id, true)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, lock bool) (*domain.Membership, error) {
	stmt := db.WithContext(ctx).Model(&domain.Membership{}).
		Where("org_id = ? AND id = ?", orgID, id)
	// SQLite has no row locks; its writer lock covers the transaction.
	if lock && db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m domain.Membership
	if err := stmt.Scan(&m).Error; err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) UpdateRenewal(ctx context.Context, db *gorm.DB, m *domain.Membership) error {
	return db.WithContext(ctx).Exec(
		`UPDATE memberships
		 SET status = ?, next_due_on = ?, last_paid_on = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		m.Status,
		m.NextDueOn,
		m.LastPaidOn,
		m.UpdatedAt,
		m.OrgID,
		m.ID,
	).Error
}

func (r *repo) SetDueDate(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, due time.Time, updatedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE memberships SET next_due_on = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		due,
		updatedAt,
		orgID,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) FindPlan(ctx context.Context, db *gorm.DB, orgID, planID snowflake.ID) (*domain.MembershipPlan, error) {
	var plan domain.MembershipPlan
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, billing_months, price, active, created_at
		 FROM membership_plans WHERE org_id = ? AND id = ?`,
		orgID,
		planID,
	).Scan(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) InsertPlan(ctx context.Context, db *gorm.DB, plan *domain.MembershipPlan) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO membership_plans (id, org_id, name, billing_months, price, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.OrgID,
		plan.Name,
		plan.BillingMonths,
		plan.Price,
		plan.Active,
		plan.CreatedAt,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, p *domain.MembershipPayment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO membership_payments (id, org_id, membership_id, customer_id, amount, note, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.OrgID,
		p.MembershipID,
		p.CustomerID,
		p.Amount,
		p.Note,
		p.PaidAt,
	).Error
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, orgID, membershipID snowflake.ID) ([]domain.MembershipPayment, error) {
	var payments []domain.MembershipPayment
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, membership_id, customer_id, amount, note, paid_at
		 FROM membership_payments WHERE org_id = ? AND membership_id = ?
		 ORDER BY id DESC`,
		orgID,
		membershipID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
