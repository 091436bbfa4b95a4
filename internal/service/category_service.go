package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
	"github.com/d60-Lab/order-system/pkg/logger"
)

const statsCacheTTL = 60 * time.Second

// CategoryInput 创建/更新分类入参
type CategoryInput struct {
	Name      string  `json:"name" binding:"required,max=100"`
	Slug      string  `json:"slug" binding:"max=120"`
	ParentID  *string `json:"parent_id"`
	SortOrder int     `json:"sort_order"`
}

// CategoryNode 树形返回结构
type CategoryNode struct {
	*model.Category
	Children []*CategoryNode `json:"children"`
}

// CategoryStats 子树均价结果
type CategoryStats struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	repository.PriceStats
	IncludesSubcategories bool `json:"includes_subcategories"`
}

// CategoryService 分类树：层级维护、子树遍历、均价聚合
type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	cache      *redis.Client // 可为 nil（测试或未配置缓存）
}

func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository, cache *redis.Client) *CategoryService {
	return &CategoryService{categories: categories, products: products, cache: cache}
}

// Create 新建分类；depth 由父节点推导（根为 0）
func (s *CategoryService) Create(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category := &model.Category{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		Slug:      input.Slug,
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
		IsActive:  true,
	}
	if category.Name == "" {
		return nil, validationErrorf("category name is required")
	}
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}

	if input.ParentID != nil {
		parent, err := s.categories.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationErrorf("parent category %s does not exist", *input.ParentID)
			}
			return nil, err
		}
		category.Depth = parent.Depth + 1
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationErrorf("category slug or (parent, name) already exists")
		}
		return nil, err
	}
	return category, nil
}

// Update 更新分类；换父节点时拒绝挂到自身或后代之下，并平移整棵子树的 depth
func (s *CategoryService) Update(ctx context.Context, id string, input CategoryInput) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	newDepth := 0
	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, validationErrorf("category cannot be its own parent")
		}
		descendants, err := s.categories.DescendantIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, d := range descendants {
			if d == *input.ParentID {
				return nil, validationErrorf("cannot move category under its own descendant")
			}
		}
		parent, err := s.categories.GetByID(ctx, *input.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationErrorf("parent category %s does not exist", *input.ParentID)
			}
			return nil, err
		}
		newDepth = parent.Depth + 1
	}

	delta := newDepth - category.Depth

	if input.Name != "" {
		category.Name = strings.TrimSpace(input.Name)
	}
	if input.Slug != "" {
		category.Slug = input.Slug
	}
	category.ParentID = input.ParentID
	category.SortOrder = input.SortOrder
	category.Depth = newDepth

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}

	if delta != 0 {
		// 子树所有后代深度同步平移
		ids, err := s.categories.DescendantIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		children := make([]string, 0, len(ids))
		for _, d := range ids {
			if d != id {
				children = append(children, d)
			}
		}
		if err := s.categories.ShiftDepth(ctx, children, delta); err != nil {
			return nil, err
		}
	}
	return category, nil
}

// Get 按 id 查询
func (s *CategoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return category, err
}

// List 平铺列出全部启用分类
func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	return s.categories.List(ctx)
}

// Tree 返回从根开始的嵌套分类树
func (s *CategoryService) Tree(ctx context.Context) ([]*CategoryNode, error) {
	all, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]*CategoryNode, len(all))
	for _, c := range all {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}
	var roots []*CategoryNode
	// List 按 depth 升序返回，父节点必然先于子节点出现
	for _, c := range all {
		node := nodes[c.ID]
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*c.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			roots = append(roots, node) // 父节点被停用时提升为根展示
		}
	}
	return roots, nil
}

// Subtree 返回节点及其全部后代（有限集合，可重复调用）
func (s *CategoryService) Subtree(ctx context.Context, id string) ([]*model.Category, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	ids, err := s.categories.DescendantIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.categories.ListByIDs(ctx, ids)
}

// DescendantIDs 返回节点及其全部后代的 id 集合
func (s *CategoryService) DescendantIDs(ctx context.Context, id string) ([]string, error) {
	return s.categories.DescendantIDs(ctx, id)
}

// AveragePrice 子树内启用商品的价格均值；子树无商品时返回 ErrNoProducts
func (s *CategoryService) AveragePrice(ctx context.Context, id string) (*CategoryStats, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cached := s.cachedStats(ctx, id); cached != nil {
		return cached, nil
	}

	ids, err := s.categories.DescendantIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	priceStats, err := s.products.Stats(ctx, ids)
	if err != nil {
		return nil, err
	}
	if priceStats.ProductCount == 0 {
		return nil, ErrNoProducts
	}

	stats := &CategoryStats{
		CategoryID:            category.ID,
		CategoryName:          category.Name,
		PriceStats:            *priceStats,
		IncludesSubcategories: len(ids) > 1,
	}
	s.cacheStats(ctx, id, stats)
	return stats, nil
}

// InvalidateStats 商品写入后失效节点及其祖先链上的缓存
func (s *CategoryService) InvalidateStats(ctx context.Context, categoryID string) {
	if s.cache == nil {
		return
	}
	id := categoryID
	for id != "" {
		_ = s.cache.Del(ctx, statsCacheKey(id)).Err()
		category, err := s.categories.GetByID(ctx, id)
		if err != nil || category.ParentID == nil {
			return
		}
		id = *category.ParentID
	}
}

func (s *CategoryService) cachedStats(ctx context.Context, id string) *CategoryStats {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, statsCacheKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var stats CategoryStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *CategoryService) cacheStats(ctx context.Context, id string, stats *CategoryStats) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey(id), payload, statsCacheTTL).Err(); err != nil {
		logger.Warn("cache avg price failed", zap.Error(err))
	}
}

func statsCacheKey(id string) string { return fmt.Sprintf("category:stats:%s", id) }

// Slugify 由名称生成 slug：小写，非字母数字折叠为单个连字符
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
