package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
)

// ProductFilter 商品列表过滤条件
type ProductFilter struct {
	CategoryIDs []string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Search      string
	ActiveOnly  bool
	Offset      int
	Limit       int
}

// PriceStats 子树价格聚合结果
type PriceStats struct {
	AveragePrice decimal.Decimal `json:"average_price"`
	MinPrice     decimal.Decimal `json:"min_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	ProductCount int64           `json:"product_count"`
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error)
	// Stats 对给定分类集合内的启用商品做价格聚合
	Stats(ctx context.Context, categoryIDs []string) (*PriceStats, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepository{db: db} }

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if len(filter.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", filter.MaxPrice)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []*model.Product
	err := q.Order("name").Offset(filter.Offset).Limit(filter.Limit).Find(&products).Error
	return products, total, err
}

func (r *productRepository) Stats(ctx context.Context, categoryIDs []string) (*PriceStats, error) {
	if len(categoryIDs) == 0 {
		return &PriceStats{}, nil
	}
	var row struct {
		Avg decimal.NullDecimal
		Min decimal.NullDecimal
		Max decimal.NullDecimal
		Cnt int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("AVG(price) AS avg, MIN(price) AS min, MAX(price) AS max, COUNT(*) AS cnt").
		Where("category_id IN ? AND is_active = ?", categoryIDs, true).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	stats := &PriceStats{ProductCount: row.Cnt}
	if row.Avg.Valid {
		stats.AveragePrice = row.Avg.Decimal.Round(2)
		stats.MinPrice = row.Min.Decimal
		stats.MaxPrice = row.Max.Decimal
	}
	return stats, nil
}
