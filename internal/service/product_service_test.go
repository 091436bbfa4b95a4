package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
)

type catalogFixture struct {
	db         *gorm.DB
	categories *CategoryService
	products   *ProductService
	grocery    *model.Category
	bakery     *model.Category
	dairy      *model.Category
}

func setupCatalog(t *testing.T) *catalogFixture {
	t.Helper()
	db := setupTestDB(t)
	categories := newCategoryService(db)
	products := newTestProductService(db, categories)
	ctx := context.Background()

	grocery, err := categories.Create(ctx, CategoryInput{Name: "Grocery"})
	require.NoError(t, err)
	bakery, err := categories.Create(ctx, CategoryInput{Name: "Bakery", ParentID: &grocery.ID})
	require.NoError(t, err)
	dairy, err := categories.Create(ctx, CategoryInput{Name: "Dairy", ParentID: &grocery.ID})
	require.NoError(t, err)

	return &catalogFixture{db: db, categories: categories, products: products,
		grocery: grocery, bakery: bakery, dairy: dairy}
}

func (f *catalogFixture) addProduct(t *testing.T, name, sku, price, categoryID string) *model.Product {
	t.Helper()
	product, err := f.products.Create(context.Background(), ProductInput{
		Name: name, SKU: sku, Price: decimal.RequireFromString(price), CategoryID: categoryID,
		Stock: 10,
	})
	require.NoError(t, err)
	return product
}

func TestProductCreateValidation(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()
	var vErr *ValidationError

	_, err := f.products.Create(ctx, ProductInput{
		Name: "Free Bread", SKU: "BRD-000", Price: decimal.Zero, CategoryID: f.bakery.ID,
	})
	assert.True(t, errors.As(err, &vErr))

	_, err = f.products.Create(ctx, ProductInput{
		Name: "Bread", SKU: "BRD-001", Price: decimal.RequireFromString("10"),
		CategoryID: f.bakery.ID, Stock: -1,
	})
	assert.True(t, errors.As(err, &vErr))

	_, err = f.products.Create(ctx, ProductInput{
		Name: "Bread", SKU: "BRD-001", Price: decimal.RequireFromString("10"),
		CategoryID: "no-such-category",
	})
	assert.True(t, errors.As(err, &vErr))
}

func TestProductCreateInactivePersists(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()

	// is_active=false 必须原样落库，不能被列默认值吞掉
	inactive := false
	created, err := f.products.Create(ctx, ProductInput{
		Name: "Old Rye", SKU: "BRD-099", Price: decimal.RequireFromString("8.00"),
		CategoryID: f.bakery.ID, IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, created.IsActive)

	got, err := f.products.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestProductDuplicateSKU(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()

	f.addProduct(t, "Sourdough", "DUP-1", "10.00", f.bakery.ID)
	_, err := f.products.Create(ctx, ProductInput{
		Name: "Rye", SKU: "DUP-1", Price: decimal.RequireFromString("8.00"), CategoryID: f.bakery.ID,
	})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestProductPriceRounded(t *testing.T) {
	f := setupCatalog(t)

	product := f.addProduct(t, "Croissant", "BRD-010", "12.345", f.bakery.ID)
	assert.Equal(t, "12.35", product.Price.StringFixed(2))
}

func TestProductListSubtreeFilter(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()

	f.addProduct(t, "Sourdough", "BRD-001", "10.00", f.bakery.ID)
	f.addProduct(t, "Milk", "DRY-001", "5.00", f.dairy.ID)

	// 按父分类过滤要覆盖整个子树
	page, err := f.products.List(ctx, ProductQuery{CategoryID: f.grocery.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	page, err = f.products.List(ctx, ProductQuery{CategoryID: f.bakery.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "Sourdough", page.Items[0].Name)

	_, err = f.products.List(ctx, ProductQuery{CategoryID: "no-such-category"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductListPriceAndSearchFilters(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()

	f.addProduct(t, "Sourdough Loaf", "BRD-001", "10.00", f.bakery.ID)
	f.addProduct(t, "Baguette", "BRD-002", "25.00", f.bakery.ID)
	f.addProduct(t, "Milk", "DRY-001", "40.00", f.dairy.ID)

	minPrice := decimal.RequireFromString("20")
	maxPrice := decimal.RequireFromString("30")
	page, err := f.products.List(ctx, ProductQuery{MinPrice: &minPrice, MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "Baguette", page.Items[0].Name)

	page, err = f.products.List(ctx, ProductQuery{Search: "sourdough"})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, "Sourdough Loaf", page.Items[0].Name)
}

func TestProductListPagination(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()

	f.addProduct(t, "A", "SKU-A", "1.00", f.bakery.ID)
	f.addProduct(t, "B", "SKU-B", "2.00", f.bakery.ID)
	f.addProduct(t, "C", "SKU-C", "3.00", f.bakery.ID)

	page, err := f.products.List(ctx, ProductQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Page)
}

func TestProductListExcludesInactive(t *testing.T) {
	f := setupCatalog(t)
	ctx := context.Background()

	active := f.addProduct(t, "Sourdough", "BRD-001", "10.00", f.bakery.ID)
	hidden := f.addProduct(t, "Old Rye", "BRD-002", "8.00", f.bakery.ID)
	inactive := false
	_, err := f.products.Update(ctx, hidden.ID, ProductInput{
		Name: hidden.Name, SKU: hidden.SKU, Price: hidden.Price,
		CategoryID: hidden.CategoryID, IsActive: &inactive,
	})
	require.NoError(t, err)

	page, err := f.products.List(ctx, ProductQuery{})
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Total)
	assert.Equal(t, active.ID, page.Items[0].ID)
}

func TestAveragePriceCacheInvalidation(t *testing.T) {
	db := setupTestDB(t)
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	categories := NewCategoryService(
		repository.NewCategoryRepository(db), repository.NewProductRepository(db), cache)
	products := newTestProductService(db, categories)
	ctx := context.Background()

	grocery, err := categories.Create(ctx, CategoryInput{Name: "Grocery"})
	require.NoError(t, err)
	bakery, err := categories.Create(ctx, CategoryInput{Name: "Bakery", ParentID: &grocery.ID})
	require.NoError(t, err)

	_, err = products.Create(ctx, ProductInput{
		Name: "Sourdough", SKU: "BRD-001",
		Price: decimal.RequireFromString("10.00"), CategoryID: bakery.ID,
	})
	require.NoError(t, err)

	stats, err := categories.AveragePrice(ctx, bakery.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", stats.AveragePrice.StringFixed(2))
	assert.True(t, mr.Exists("category:stats:"+bakery.ID))

	// 新增商品写穿整条祖先链的缓存
	stats, err = categories.AveragePrice(ctx, grocery.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", stats.AveragePrice.StringFixed(2))

	_, err = products.Create(ctx, ProductInput{
		Name: "Baguette", SKU: "BRD-002",
		Price: decimal.RequireFromString("30.00"), CategoryID: bakery.ID,
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("category:stats:"+bakery.ID))
	assert.False(t, mr.Exists("category:stats:"+grocery.ID))

	stats, err = categories.AveragePrice(ctx, grocery.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", stats.AveragePrice.StringFixed(2))
	assert.EqualValues(t, 2, stats.ProductCount)
}
