package shop

import (
	"context"
	"testing"

	"shopfront/internal/domain"
	"shopfront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func placeOrder(t *testing.T, db *gorm.DB, customer *domain.User, lines map[*domain.Product]int) *domain.Order {
	t.Helper()
	ctx := context.Background()
	for product, quantity := range lines {
		_, err := AddOrIncrement(ctx, db, customer.ID, product.ID, quantity)
		require.NoError(t, err)
	}
	order, err := Checkout(ctx, db, customer.ID)
	require.NoError(t, err)
	return order
}

func TestCustomerAndVendorOrders(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	alpha := testutil.CreateUser(t, db, "alpha", domain.RoleVendor)
	beta := testutil.CreateUser(t, db, "beta", domain.RoleVendor)
	alice := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	bob := testutil.CreateUser(t, db, "bob", domain.RoleCustomer)
	lamp := testutil.CreateProduct(t, db, alpha, nil, "Lamp", "10.00", 10)
	mug := testutil.CreateProduct(t, db, beta, nil, "Mug", "4.00", 10)

	first := placeOrder(t, db, alice, map[*domain.Product]int{lamp: 1, mug: 2})
	placeOrder(t, db, bob, map[*domain.Product]int{mug: 1})

	aliceOrders, err := CustomerOrders(ctx, db, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceOrders, 1)
	assert.Equal(t, first.ID, aliceOrders[0].ID)
	require.Len(t, aliceOrders[0].Items, 2)
	require.NotNil(t, aliceOrders[0].Customer)
	assert.Equal(t, "alice", aliceOrders[0].Customer.Username)

	alphaOrders, err := VendorOrders(ctx, db, alpha.ID)
	require.NoError(t, err)
	require.Len(t, alphaOrders, 1)
	assert.Equal(t, first.ID, alphaOrders[0].ID)

	betaOrders, err := VendorOrders(ctx, db, beta.ID)
	require.NoError(t, err)
	assert.Len(t, betaOrders, 2)

	_, err = OrderForCustomer(ctx, db, bob.ID, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkPaid(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	alice := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	lamp := testutil.CreateProduct(t, db, vendor, nil, "Lamp", "10.00", 10)
	order := placeOrder(t, db, alice, map[*domain.Product]int{lamp: 1})

	paid, err := MarkPaid(ctx, db, order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.NotNil(t, paid.PaidAt)

	var validationErr *domain.ValidationError
	_, err = MarkPaid(ctx, db, order.ID)
	require.ErrorAs(t, err, &validationErr)

	_, err = MarkPaid(ctx, db, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrdersPaginatesAndFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	vendor := testutil.CreateUser(t, db, "vendor", domain.RoleVendor)
	alice := testutil.CreateUser(t, db, "alice", domain.RoleCustomer)
	bob := testutil.CreateUser(t, db, "bob", domain.RoleCustomer)
	lamp := testutil.CreateProduct(t, db, vendor, nil, "Lamp", "10.00", 10)
	for i := 0; i < 3; i++ {
		placeOrder(t, db, alice, map[*domain.Product]int{lamp: 1})
	}
	bobOrder := placeOrder(t, db, bob, map[*domain.Product]int{lamp: 1})
	_, err := MarkPaid(ctx, db, bobOrder.ID)
	require.NoError(t, err)

	orders, total, err := ListOrders(ctx, db, OrderFilter{}, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, orders, 2)

	orders, total, err = ListOrders(ctx, db, OrderFilter{CustomerID: alice.ID}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, orders, 1)

	paid := true
	orders, total, err = ListOrders(ctx, db, OrderFilter{Paid: &paid}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, bobOrder.ID, orders[0].ID)
}
