package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
)

// CategoryRepository 分类仓储接口
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id string) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	// List 返回全部启用分类，按 depth、sort_order、name 排序
	List(ctx context.Context) ([]*model.Category, error)
	ListChildren(ctx context.Context, parentID string) ([]*model.Category, error)
	// DescendantIDs 返回节点自身及全部后代的 id（递归 CTE）
	DescendantIDs(ctx context.Context, id string) ([]string, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Category, error)
	// ShiftDepth 批量平移子树深度（挂接到新父节点时使用）
	ShiftDepth(ctx context.Context, ids []string, delta int) error
	Count(ctx context.Context) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepository{db: db} }

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("depth, sort_order, name").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ListChildren(ctx context.Context, parentID string) ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("sort_order, name").
		Find(&categories).Error
	return categories, err
}

// DescendantIDs 单条递归查询取整棵子树；结果包含节点本身，顺序不保证
func (r *categoryRepository) DescendantIDs(ctx context.Context, id string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM categories WHERE id = ?
			UNION ALL
			SELECT c.id FROM categories c
			JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree
	`, id).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *categoryRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []*model.Category
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("depth, sort_order, name").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) ShiftDepth(ctx context.Context, ids []string, delta int) error {
	if len(ids) == 0 || delta == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id IN ?", ids).
		Update("depth", gorm.Expr("depth + ?", delta)).Error
}

func (r *categoryRepository) Count(ctx context.Context) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("is_active = ?", true).Count(&cnt).Error
	return cnt, err
}
