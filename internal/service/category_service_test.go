package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Customer{}, &model.Category{}, &model.Product{},
		&model.Order{}, &model.OrderItem{},
	))
	return db
}

func newCategoryService(db *gorm.DB) *CategoryService {
	return NewCategoryService(repository.NewCategoryRepository(db), repository.NewProductRepository(db), nil)
}

func newTestProductService(db *gorm.DB, categories *CategoryService) *ProductService {
	return NewProductService(repository.NewProductRepository(db), categories, 20)
}

func TestCategoryDepth(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	root, err := svc.Create(ctx, CategoryInput{Name: "Grocery"})
	require.NoError(t, err)
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, "grocery", root.Slug)

	child, err := svc.Create(ctx, CategoryInput{Name: "Produce", ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, child.Depth)

	grandchild, err := svc.Create(ctx, CategoryInput{Name: "Fruits", ParentID: &child.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, grandchild.Depth)

	// 所有非根节点满足 depth = parent.depth + 1
	all, err := svc.List(ctx)
	require.NoError(t, err)
	byID := make(map[string]*model.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	for _, c := range all {
		if c.ParentID == nil {
			assert.Equal(t, 0, c.Depth)
		} else {
			assert.Equal(t, byID[*c.ParentID].Depth+1, c.Depth)
		}
	}
}

func TestCategoryCreateMissingParent(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)

	missing := "no-such-id"
	_, err := svc.Create(context.Background(), CategoryInput{Name: "Orphan", ParentID: &missing})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestCategoryDuplicateNameUnderSameParent(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	root, err := svc.Create(ctx, CategoryInput{Name: "Grocery"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CategoryInput{Name: "Bakery", ParentID: &root.ID})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CategoryInput{Name: "Bakery", ParentID: &root.ID, Slug: "bakery-2"})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))

	// slug 冲突同样走校验错误
	_, err = svc.Create(ctx, CategoryInput{Name: "Pastry", ParentID: &root.ID, Slug: "bakery"})
	assert.True(t, errors.As(err, &vErr))
}

func TestCategoryReparentCycleRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	a, err := svc.Create(ctx, CategoryInput{Name: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, CategoryInput{Name: "B", ParentID: &a.ID})
	require.NoError(t, err)
	c, err := svc.Create(ctx, CategoryInput{Name: "C", ParentID: &b.ID})
	require.NoError(t, err)

	// 挂到自己下面
	_, err = svc.Update(ctx, a.ID, CategoryInput{Name: "A", ParentID: &a.ID})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))

	// 挂到自己的后代下面
	_, err = svc.Update(ctx, a.ID, CategoryInput{Name: "A", ParentID: &c.ID})
	assert.True(t, errors.As(err, &vErr))
}

func TestCategoryReparentShiftsSubtreeDepth(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	root, _ := svc.Create(ctx, CategoryInput{Name: "Root"})
	deep, _ := svc.Create(ctx, CategoryInput{Name: "Deep", ParentID: &root.ID})
	moved, _ := svc.Create(ctx, CategoryInput{Name: "Moved"})
	child, _ := svc.Create(ctx, CategoryInput{Name: "Child", ParentID: &moved.ID})

	_, err := svc.Update(ctx, moved.ID, CategoryInput{Name: "Moved", ParentID: &deep.ID})
	require.NoError(t, err)

	got, err := svc.Get(ctx, moved.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Depth)

	gotChild, err := svc.Get(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, gotChild.Depth)
}

func TestSubtree(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	root, _ := svc.Create(ctx, CategoryInput{Name: "Root"})
	a, _ := svc.Create(ctx, CategoryInput{Name: "A", ParentID: &root.ID})
	b, _ := svc.Create(ctx, CategoryInput{Name: "B", ParentID: &a.ID})
	_, _ = svc.Create(ctx, CategoryInput{Name: "Other"})

	nodes, err := svc.Subtree(ctx, root.ID)
	require.NoError(t, err)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	assert.ElementsMatch(t, []string{root.ID, a.ID, b.ID}, ids)

	// 可重复调用，结果一致
	again, err := svc.Subtree(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, again, len(nodes))
}

func TestAveragePrice(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	products := newTestProductService(db, svc)
	ctx := context.Background()

	bakery, err := svc.Create(ctx, CategoryInput{Name: "Bakery"})
	require.NoError(t, err)
	bread, err := svc.Create(ctx, CategoryInput{Name: "Bread", ParentID: &bakery.ID})
	require.NoError(t, err)

	_, err = products.Create(ctx, ProductInput{
		Name: "Sourdough", SKU: "BRD-001", Price: decimal.NewFromInt(10), CategoryID: bread.ID, Stock: 5,
	})
	require.NoError(t, err)
	_, err = products.Create(ctx, ProductInput{
		Name: "Baguette", SKU: "BRD-002", Price: decimal.NewFromInt(20), CategoryID: bread.ID, Stock: 5,
	})
	require.NoError(t, err)

	// Bakery 无直属商品，但子树内均价 = (10+20)/2
	stats, err := svc.AveragePrice(ctx, bakery.ID)
	require.NoError(t, err)
	assert.Equal(t, "15.00", stats.AveragePrice.StringFixed(2))
	assert.Equal(t, int64(2), stats.ProductCount)
	assert.True(t, stats.IncludesSubcategories)
	assert.Equal(t, bakery.Name, stats.CategoryName)
}

func TestAveragePriceEmptySubtree(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	ctx := context.Background()

	empty, err := svc.Create(ctx, CategoryInput{Name: "Empty"})
	require.NoError(t, err)

	_, err = svc.AveragePrice(ctx, empty.ID)
	assert.ErrorIs(t, err, ErrNoProducts)

	_, err = svc.AveragePrice(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAveragePriceExcludesInactive(t *testing.T) {
	db := setupTestDB(t)
	svc := newCategoryService(db)
	products := newTestProductService(db, svc)
	ctx := context.Background()

	cat, _ := svc.Create(ctx, CategoryInput{Name: "Drinks"})
	inactive := false
	_, err := products.Create(ctx, ProductInput{
		Name: "Juice", SKU: "DRK-001", Price: decimal.NewFromInt(10), CategoryID: cat.ID, IsActive: &inactive,
	})
	require.NoError(t, err)
	_, err = products.Create(ctx, ProductInput{
		Name: "Water", SKU: "DRK-002", Price: decimal.NewFromInt(4), CategoryID: cat.ID,
	})
	require.NoError(t, err)

	stats, err := svc.AveragePrice(ctx, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ProductCount)
	assert.Equal(t, "4.00", stats.AveragePrice.StringFixed(2))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fresh-fruit", Slugify("Fresh Fruit"))
	assert.Equal(t, "a-b-c", Slugify("  A & B / C!"))
	assert.Equal(t, "citrus-2024", Slugify("Citrus 2024"))
}
