package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
)

// OrderSummary 单个顾客的订单汇总
type OrderSummary struct {
	TotalOrders     int64           `json:"total_orders"`
	PendingOrders   int64           `json:"pending_orders"`
	DeliveredOrders int64           `json:"delivered_orders"`
	CancelledOrders int64           `json:"cancelled_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}

// OrderRepository 订单仓储接口；创建/取消等多表事务由 service 层直接走 gorm 事务
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	// GetDetail 带明细行
	GetDetail(ctx context.Context, id string) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID, status string, offset, limit int) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// MarkSMSSent / MarkEmailSent 通知幂等标记
	MarkSMSSent(ctx context.Context, id string) error
	MarkEmailSent(ctx context.Context, id string) error
	Summary(ctx context.Context, customerID string) (*OrderSummary, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepository{db: db} }

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetDetail(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID, status string, offset, limit int) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("customer_id = ?", customerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []*model.Order
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *orderRepository) MarkSMSSent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("sms_sent", true).Error
}

func (r *orderRepository) MarkEmailSent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", id).
		Update("email_sent", true).Error
}

func (r *orderRepository) Summary(ctx context.Context, customerID string) (*OrderSummary, error) {
	var summary OrderSummary
	base := r.db.WithContext(ctx).Model(&model.Order{}).Where("customer_id = ?", customerID)

	type pair struct {
		field  string
		target *int64
	}
	if err := base.Session(&gorm.Session{}).Count(&summary.TotalOrders).Error; err != nil {
		return nil, err
	}
	for _, p := range []pair{
		{model.OrderStatusPending, &summary.PendingOrders},
		{model.OrderStatusDelivered, &summary.DeliveredOrders},
		{model.OrderStatusCancelled, &summary.CancelledOrders},
	} {
		if err := base.Session(&gorm.Session{}).Where("status = ?", p.field).Count(p.target).Error; err != nil {
			return nil, err
		}
	}

	// 只有已送达订单计入消费额
	var spent decimal.NullDecimal
	err := base.Session(&gorm.Session{}).
		Where("status = ?", model.OrderStatusDelivered).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&spent).Error
	if err != nil {
		return nil, err
	}
	if spent.Valid {
		summary.TotalSpent = spent.Decimal
	}
	return &summary, nil
}
