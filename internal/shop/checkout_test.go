package shop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"shopfront/internal/domain"
	"shopfront/internal/pricing"
	"shopfront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCheckoutMovesCartIntoOrder(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	customer := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	product := testutil.CreateProduct(t, db, vendor, nil, "Lamp", "10.00", 5)

	item, err := AddOrIncrement(ctx, db, customer.ID, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	order, err := Checkout(ctx, db, customer.ID)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.NotEmpty(t, order.Reference)
	require.Len(t, order.Items, 1)
	assert.Equal(t, product.ID, order.Items[0].ProductID)
	assert.Equal(t, 3, order.Items[0].Quantity)

	assert.Equal(t, 2, testutil.Stock(t, db, product.ID))
	items, err := List(ctx, db, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	stored, err := OrderForCustomer(ctx, db, customer.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.False(t, stored.IsPaid)
	assert.Equal(t, "30.00", pricing.Subtotal(stored).StringFixed(2))
}

func TestCheckoutLinesFollowProductOrder(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	customer := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	first := testutil.CreateProduct(t, db, vendor, nil, "Anvil", "10.00", 5)
	second := testutil.CreateProduct(t, db, vendor, nil, "Bucket", "5.50", 5)

	// Added to the cart in reverse product order
	_, err := AddOrIncrement(ctx, db, customer.ID, second.ID, 1)
	require.NoError(t, err)
	_, err = AddOrIncrement(ctx, db, customer.ID, first.ID, 2)
	require.NoError(t, err)

	order, err := Checkout(ctx, db, customer.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, []uint{first.ID, second.ID}, []uint{order.Items[0].ProductID, order.Items[1].ProductID})

	stored, err := OrderForCustomer(ctx, db, customer.ID, order.ID)
	require.NoError(t, err)
	lines := pricing.ProductSummary(stored)
	require.Len(t, lines, 2)
	assert.Equal(t, "Anvil", lines[0].Name)
	assert.Equal(t, "Bucket", lines[1].Name)
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	customer := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	product := testutil.CreateProduct(t, db, vendor, nil, "Lamp", "10.00", 5)

	_, err := AddOrIncrement(ctx, db, customer.ID, product.ID, 3)
	require.NoError(t, err)
	// Another sale leaves only 2 behind
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", product.ID).Update("stock", 2).Error)

	_, err = Checkout(ctx, db, customer.ID)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Lamp", stockErr.Product)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	assert.Equal(t, 2, testutil.Stock(t, db, product.ID))
	assert.Zero(t, countRows(t, db, &domain.Order{}))
	items, err := List(ctx, db, customer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := testutil.NewDB(t)
	customer := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)

	_, err := Checkout(context.Background(), db, customer.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Zero(t, countRows(t, db, &domain.Order{}))
}

func TestCheckoutIsAllOrNothing(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	customer := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	first := testutil.CreateProduct(t, db, vendor, nil, "Lamp", "10.00", 5)
	second := testutil.CreateProduct(t, db, vendor, nil, "Shade", "4.00", 5)

	_, err := AddOrIncrement(ctx, db, customer.ID, first.ID, 2)
	require.NoError(t, err)
	_, err = AddOrIncrement(ctx, db, customer.ID, second.ID, 4)
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Product{}).Where("id = ?", second.ID).Update("stock", 1).Error)

	_, err = Checkout(ctx, db, customer.ID)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, second.ID, stockErr.ProductID)

	assert.Equal(t, 5, testutil.Stock(t, db, first.ID))
	assert.Equal(t, 1, testutil.Stock(t, db, second.ID))
	assert.Zero(t, countRows(t, db, &domain.Order{}))
	assert.Zero(t, countRows(t, db, &domain.OrderItem{}))
	assert.EqualValues(t, 2, countRows(t, db, &domain.CartItem{}))
}

func TestOrderItemHookRejectsOverdraw(t *testing.T) {
	db := testutil.NewDB(t)
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	customer := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	product := testutil.CreateProduct(t, db, vendor, nil, "Lamp", "10.00", 2)
	order := domain.Order{CustomerID: customer.ID, Reference: "manual-1"}
	require.NoError(t, db.Create(&order).Error)

	err := db.Create(&domain.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 3}).Error
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 2, testutil.Stock(t, db, product.ID))
	assert.Zero(t, countRows(t, db, &domain.OrderItem{}))

	require.NoError(t, db.Create(&domain.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 2}).Error)
	assert.Equal(t, 0, testutil.Stock(t, db, product.ID))

	err = db.Create(&domain.OrderItem{OrderID: order.ID, ProductID: 424242, Quantity: 1}).Error
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	product := testutil.CreateProduct(t, db, vendor, nil, "Lamp", "10.00", 5)

	const buyers = 6
	customers := make([]*domain.User, buyers)
	for i := range customers {
		customers[i] = testutil.CreateUser(t, db, fmt.Sprintf("buyer%d", i), domain.RoleCustomer)
		_, err := AddOrIncrement(ctx, db, customers[i].ID, product.ID, 2)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range customers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Checkout(ctx, db, customers[i].ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		var stockErr *domain.InsufficientStockError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &stockErr):
		default:
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, testutil.Stock(t, db, product.ID))
	assert.EqualValues(t, 2, countRows(t, db, &domain.OrderItem{}))
}
