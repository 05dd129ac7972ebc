package shop

import (
	"context"
	"testing"

	"shopfront/internal/domain"
	"shopfront/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func activeFlag(t *testing.T, db *gorm.DB, productID uint) bool {
	t.Helper()
	var product domain.Product
	require.NoError(t, db.First(&product, productID).Error)
	return product.IsActive
}

func TestCategoryToggleCascadesToProducts(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	books := testutil.CreateCategory(t, db, "Books", true)
	games := testutil.CreateCategory(t, db, "Games", true)
	novel := testutil.CreateProduct(t, db, vendor, books, "Novel", "12.00", 3)
	atlas := testutil.CreateProduct(t, db, vendor, books, "Atlas", "30.00", 1)
	chess := testutil.CreateProduct(t, db, vendor, games, "Chess", "25.00", 2)
	loose := testutil.CreateProduct(t, db, vendor, nil, "Sticker", "1.00", 9)

	off := false
	category, err := UpdateCategory(ctx, db, books.ID, CategoryUpdate{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, category.IsActive)
	assert.False(t, activeFlag(t, db, novel.ID))
	assert.False(t, activeFlag(t, db, atlas.ID))
	assert.True(t, activeFlag(t, db, chess.ID))
	assert.True(t, activeFlag(t, db, loose.ID))

	on := true
	_, err = UpdateCategory(ctx, db, books.ID, CategoryUpdate{IsActive: &on})
	require.NoError(t, err)
	assert.True(t, activeFlag(t, db, novel.ID))
	assert.True(t, activeFlag(t, db, atlas.ID))
	assert.True(t, activeFlag(t, db, chess.ID))
}

func TestCategoryWinsOverProductFlag(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	books := testutil.CreateCategory(t, db, "Books", true)
	novel := testutil.CreateProduct(t, db, vendor, books, "Novel", "12.00", 3)

	off := false
	_, err := UpdateProduct(ctx, db, vendor, novel.ID, ProductUpdate{IsActive: &off})
	require.NoError(t, err)
	assert.False(t, activeFlag(t, db, novel.ID))

	// Renaming saves the category and re-applies its flag
	name := "Fiction"
	_, err = UpdateCategory(ctx, db, books.ID, CategoryUpdate{Name: &name})
	require.NoError(t, err)
	assert.True(t, activeFlag(t, db, novel.ID))
}

func TestCategoryNamesAreUnique(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	_, err := CreateCategory(ctx, db, "Books", true)
	require.NoError(t, err)
	_, err = CreateCategory(ctx, db, "Books", true)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)

	_, err = CreateCategory(ctx, db, "  ", true)
	require.ErrorAs(t, err, &validationErr)

	_, err = UpdateCategory(ctx, db, 999, CategoryUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCategoriesFiltersByName(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	testutil.CreateCategory(t, db, "Board Games", true)
	testutil.CreateCategory(t, db, "Video Games", false)
	testutil.CreateCategory(t, db, "Books", true)

	categories, err := ListCategories(ctx, db, "games")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Board Games", categories[0].Name)

	all, err := ListCategories(ctx, db, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	books := testutil.CreateCategory(t, db, "Books", true)
	novel := testutil.CreateProduct(t, db, vendor, books, "Novel", "12.00", 3)

	require.NoError(t, DeleteCategory(ctx, db, books.ID))
	product, err := GetProduct(ctx, db, novel.ID)
	require.NoError(t, err)
	assert.Nil(t, product.CategoryID)

	assert.ErrorIs(t, DeleteCategory(ctx, db, books.ID), domain.ErrNotFound)
}

func TestCreateProduct(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	customer := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	books := testutil.CreateCategory(t, db, "Books", true)
	closed := testutil.CreateCategory(t, db, "Closed", false)

	product, err := CreateProduct(ctx, db, vendor, ProductInput{
		Name:       "Novel",
		CategoryID: &books.ID,
		Price:      decimal.RequireFromString("12.345"),
		Stock:      4,
	})
	require.NoError(t, err)
	assert.True(t, product.IsActive)
	assert.Equal(t, vendor.ID, product.VendorID)
	assert.Equal(t, "12.35", product.Price.StringFixed(2))
	assert.Equal(t, "Books", product.CategoryName())

	var validationErr *domain.ValidationError
	_, err = CreateProduct(ctx, db, vendor, ProductInput{Name: "Old", CategoryID: &closed.ID, Price: decimal.NewFromInt(1)})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "category", validationErr.Field)

	_, err = CreateProduct(ctx, db, vendor, ProductInput{Name: "Free", Price: decimal.NewFromInt(-1)})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "price", validationErr.Field)

	_, err = CreateProduct(ctx, db, vendor, ProductInput{Name: "Free", Price: decimal.Zero, Stock: -1})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "stock", validationErr.Field)

	_, err = CreateProduct(ctx, db, customer, ProductInput{Name: "Nope", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestProductOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", domain.RoleVendor)
	rival := testutil.CreateUser(t, db, "rival", domain.RoleVendor)
	admin := testutil.CreateUser(t, db, "root", domain.RoleAdmin)
	product := testutil.CreateProduct(t, db, owner, nil, "Lamp", "10.00", 5)

	stock := 9
	_, err := UpdateProduct(ctx, db, rival, product.ID, ProductUpdate{Stock: &stock})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := UpdateProduct(ctx, db, owner, product.ID, ProductUpdate{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)

	price := decimal.RequireFromString("11.50")
	updated, err = UpdateProduct(ctx, db, admin, product.ID, ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "11.50", updated.Price.StringFixed(2))

	assert.ErrorIs(t, DeleteProduct(ctx, db, rival, product.ID), domain.ErrForbidden)
	require.NoError(t, DeleteProduct(ctx, db, owner, product.ID))
	_, err = GetProduct(ctx, db, product.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListProductsFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alpha := testutil.CreateUser(t, db, "alpha", domain.RoleVendor)
	beta := testutil.CreateUser(t, db, "beta", domain.RoleVendor)
	books := testutil.CreateCategory(t, db, "Books", true)
	testutil.CreateProduct(t, db, alpha, books, "Blue Novel", "12.00", 3)
	testutil.CreateProduct(t, db, alpha, nil, "Blue Mug", "5.00", 3)
	testutil.CreateProduct(t, db, beta, books, "Red Novel", "9.00", 3)

	byName, err := ListProducts(ctx, db, ProductFilter{Name: "blue"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byCategory, err := ListProducts(ctx, db, ProductFilter{Category: "book"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	own, err := ListProducts(ctx, db, ProductFilter{VendorID: beta.ID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Red Novel", own[0].Name)
	assert.Equal(t, "Books", own[0].CategoryName())

	ids, err := ProductIDsInCategory(ctx, db, books.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
