package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem 订单明细行；名称 / SKU / 单价均为下单时刻快照，创建后不可变
type OrderItem struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID   string `gorm:"type:varchar(36);index:idx_item_order;not null" json:"order_id"`
	ProductID string `gorm:"type:varchar(36);index:idx_item_product;not null" json:"product_id"`

	ProductName string `gorm:"type:varchar(200);not null" json:"product_name"`
	ProductSKU  string `gorm:"type:varchar(50);not null" json:"product_sku"`

	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`

	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }
