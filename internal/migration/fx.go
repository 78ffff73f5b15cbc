package migration

import (
	catalogdomain "github.com/smallbiznis/comercia/internal/catalog/domain"
	"github.com/smallbiznis/comercia/internal/config"
	membershipdomain "github.com/smallbiznis/comercia/internal/membership/domain"
	orderdomain "github.com/smallbiznis/comercia/internal/order/domain"
	organizationdomain "github.com/smallbiznis/comercia/internal/organization/domain"
	"github.com/smallbiznis/comercia/internal/seed"
	subscriptiondomain "github.com/smallbiznis/comercia/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := autoMigrate(conn); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureMainOrgWithID(conn, cfg.DefaultOrgID)
		}
		return seed.EnsureMainOrg(conn)
	}),
)

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&organizationdomain.Organization{},
		&catalogdomain.Product{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&subscriptiondomain.Subscription{},
		&membershipdomain.MembershipPlan{},
		&membershipdomain.Membership{},
		&membershipdomain.MembershipPayment{},
	)
}
