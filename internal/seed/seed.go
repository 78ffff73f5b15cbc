// Package seed bootstraps the default organization so a fresh install can
// take its first checkout without any provisioning step.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	membershipdomain "github.com/smallbiznis/comercia/internal/membership/domain"
	organizationdomain "github.com/smallbiznis/comercia/internal/organization/domain"
	subscriptiondomain "github.com/smallbiznis/comercia/internal/subscription/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultOrgName  = "Main"
	defaultOrgSlug  = "main"
	defaultPlanName = "Monthly"
	trialDays       = 14
)

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	return ensure(db, 0)
}

// EnsureMainOrgWithID seeds the default organization under a fixed id so
// DEFAULT_ORG in the environment and the seeded row agree.
func EnsureMainOrgWithID(db *gorm.DB, orgID int64) error {
	return ensure(db, snowflake.ID(orgID))
}

func ensure(db *gorm.DB, orgID snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node, orgID)
		if err != nil {
			return err
		}
		if err := ensureSubscriptionTx(ctx, tx, node, org.ID); err != nil {
			return err
		}
		return ensureDefaultPlanTx(ctx, tx, node, org.ID)
	})
}

func ensureMainOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) (*organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", defaultOrgSlug).First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if orgID == 0 {
		orgID = node.Generate()
	}
	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        orgID,
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		IsDefault: true,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// ensureSubscriptionTx provisions the trial subscription row that the
// billing state endpoint derives from.
func ensureSubscriptionTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var existing subscriptiondomain.Subscription
	err := tx.WithContext(ctx).Where("org_id = ?", orgID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	trialEnd := now.Add(trialDays * 24 * time.Hour)
	sub := subscriptiondomain.Subscription{
		ID:         node.Generate(),
		OrgID:      orgID,
		Status:     "trialing",
		TrialEndAt: &trialEnd,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return tx.WithContext(ctx).Create(&sub).Error
}

func ensureDefaultPlanTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var existing membershipdomain.MembershipPlan
	err := tx.WithContext(ctx).Where("org_id = ? AND name = ?", orgID, defaultPlanName).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	plan := membershipdomain.MembershipPlan{
		ID:            node.Generate(),
		OrgID:         orgID,
		Name:          defaultPlanName,
		BillingMonths: 1,
		Price:         0,
		Active:        true,
		CreatedAt:     time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&plan).Error
}
