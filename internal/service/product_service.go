package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
)

// ProductInput 创建/更新商品入参
type ProductInput struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Description string          `json:"description"`
	SKU         string          `json:"sku" binding:"required,max=50"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	CategoryID  string          `json:"category_id" binding:"required"`
	Stock       int             `json:"stock_quantity"`
	IsActive    *bool           `json:"is_active"`
}

// ProductQuery 商品列表查询参数
type ProductQuery struct {
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	Page       int
	PageSize   int
}

// ProductPage 商品分页结果
type ProductPage struct {
	Items    []*model.Product `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ProductService 商品目录；库存数字本身只读，增减一律走订单流程
type ProductService struct {
	products   repository.ProductRepository
	categories *CategoryService
	pageSize   int
}

func NewProductService(products repository.ProductRepository, categories *CategoryService, pageSize int) *ProductService {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &ProductService{products: products, categories: categories, pageSize: pageSize}
}

// Create 新建商品
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*model.Product, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}
	product := &model.Product{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		SKU:           input.SKU,
		Price:         input.Price.Round(2),
		CategoryID:    input.CategoryID,
		StockQuantity: input.Stock,
		IsActive:      true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationErrorf("sku %s already exists", input.SKU)
		}
		return nil, err
	}
	s.categories.InvalidateStats(ctx, product.CategoryID)
	return product, nil
}

// Update 更新商品基础信息；不在此处改库存
func (s *ProductService) Update(ctx context.Context, id string, input ProductInput) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	oldCategory := product.CategoryID
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.SKU = input.SKU
	product.Price = input.Price.Round(2)
	product.CategoryID = input.CategoryID
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.categories.InvalidateStats(ctx, product.CategoryID)
	if oldCategory != product.CategoryID {
		s.categories.InvalidateStats(ctx, oldCategory)
	}
	return product, nil
}

// Get 按 id 查询
func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return product, err
}

// List 按条件分页查询；category 过滤包含其整个子树
func (s *ProductService) List(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 || query.PageSize > 100 {
		query.PageSize = s.pageSize
	}

	filter := repository.ProductFilter{
		MinPrice:   query.MinPrice,
		MaxPrice:   query.MaxPrice,
		Search:     strings.TrimSpace(query.Search),
		ActiveOnly: true,
		Offset:     (query.Page - 1) * query.PageSize,
		Limit:      query.PageSize,
	}
	if query.CategoryID != "" {
		ids, err := s.categories.DescendantIDs(ctx, query.CategoryID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, ErrNotFound
		}
		filter.CategoryIDs = ids
	}

	items, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Total: total, Page: query.Page, PageSize: query.PageSize}, nil
}

func (s *ProductService) validate(ctx context.Context, input *ProductInput) error {
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return validationErrorf("price must be positive")
	}
	if input.Stock < 0 {
		return validationErrorf("stock quantity cannot be negative")
	}
	if _, err := s.categories.Get(ctx, input.CategoryID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return validationErrorf("category %s does not exist", input.CategoryID)
		}
		return err
	}
	return nil
}
