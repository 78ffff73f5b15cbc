package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/comercia/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) MaxOrderNumber(ctx context.Context, db *gorm.DB, orgID snowflake.ID, day time.Time) (int, error) {
	var max *int
	err := db.WithContext(ctx).Raw(
		`SELECT order_number FROM orders
		 WHERE org_id = ? AND order_date = ?
		 ORDER BY order_number DESC
		 LIMIT 1`,
		orgID,
		day,
	).Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, org_id, order_date, order_number, session_token,
			subtotal, discount, total, payment_method, payment_note,
			status, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrgID,
		order.OrderDate,
		order.OrderNumber,
		order.SessionToken,
		order.Subtotal,
		order.Discount,
		order.Total,
		order.PaymentMethod,
		order.PaymentNote,
		order.Status,
		order.CreatedAt,
		order.CompletedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO order_items (
				id, org_id, order_id, product_id, product_name,
				unit_price, quantity, line_total, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.OrgID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.UnitPrice,
			item.Quantity,
			item.LineTotal,
			item.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, order_date, order_number, session_token,
		        subtotal, discount, total, payment_method, payment_note,
		        status, created_at, completed_at
		 FROM orders WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&o).Error
	if err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, orgID, orderID snowflake.ID) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, order_id, product_id, product_name,
		        unit_price, quantity, line_total, created_at
		 FROM order_items WHERE org_id = ? AND order_id = ?
		 ORDER BY id ASC`,
		orgID,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]domain.Order, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("org_id = ?", orgID)

	if filter.Day != nil {
		stmt = stmt.Where("order_date = ?", *filter.Day)
	}
	if filter.AfterID != 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var items []domain.Order
	err := stmt.Order("id DESC").Limit(pageSize + 1).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
