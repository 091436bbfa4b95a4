package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 订单状态
const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
	OrderStatusCancelled  = "CANCELLED"
)

// orderTransitions 合法状态迁移表；不在表内的迁移一律拒绝
var orderTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransition 判断 from -> to 是否为合法迁移
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus 判断 status 是否为已知状态
func ValidOrderStatus(status string) bool {
	_, ok := orderTransitions[status]
	return ok
}

// Order 订单头，金额由明细行汇总计算
type Order struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderNumber string `gorm:"type:varchar(20);uniqueIndex:ux_order_number;not null" json:"order_number"`
	CustomerID  string `gorm:"type:varchar(36);index:idx_order_customer_created;not null" json:"customer_id"`
	Status      string `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`

	DeliveryAddress string `gorm:"type:text" json:"delivery_address"`
	DeliveryNotes   string `gorm:"type:text" json:"delivery_notes"`

	// 通知落地标记，重试任务据此做幂等判断
	SMSSent   bool `gorm:"not null;default:false" json:"sms_sent"`
	EmailSent bool `gorm:"not null;default:false" json:"email_sent"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_order_customer_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

// Cancellable 仅 PENDING / CONFIRMED 可取消
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}
