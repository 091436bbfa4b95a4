package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品，库存只允许经由订单流程增减
type Product struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string          `gorm:"type:varchar(200);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	SKU         string          `gorm:"type:varchar(50);uniqueIndex:ux_product_sku;not null" json:"sku"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID  string          `gorm:"type:varchar(36);index:idx_product_category;not null" json:"category_id"`
	// StockQuantity 永不为负：扣减由带守卫条件的 UPDATE 保证
	StockQuantity int `gorm:"not null;default:0" json:"stock_quantity"`
	// IsActive 不带列默认值：带 default 标签的 bool 在 INSERT 时零值会被省略，
	// false 会被数据库默认值覆盖；由创建方显式赋值
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// InStock 是否可售
func (p *Product) InStock() bool { return p.IsActive && p.StockQuantity > 0 }
