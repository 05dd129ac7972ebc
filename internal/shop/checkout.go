package shop

import (
	"context"
	"time"

	"shopfront/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Checkout converts the customer's cart into an order.
//
// Validation, order creation, stock deduction and cart clearing share one
// transaction: either the whole cart becomes an order or nothing changes.
// Stock is taken by the OrderItem create hook, so a concurrent checkout that
// drained a product after the pre-check rolls this one back with
// *domain.InsufficientStockError.
func Checkout(ctx context.Context, db *gorm.DB, customerID uint) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []domain.CartItem
		// Product order keeps row locks acquired in the same sequence across checkouts
		if err := tx.Preload("Product").
			Where("customer_id = ?", customerID).
			Order("product_id").
			Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.ErrEmptyCart
		}
		// Pre-check every line before writing anything
		for _, item := range items {
			if item.Product == nil {
				return domain.NotFoundf("product %d", item.ProductID)
			}
			if err := checkStock(item.Product, item.Quantity); err != nil {
				return err
			}
		}

		order = domain.Order{CustomerID: customerID, Reference: newOrderReference()}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		order.Items = make([]domain.OrderItem, 0, len(items))
		for _, item := range items {
			line := domain.OrderItem{OrderID: order.ID, ProductID: item.ProductID, Quantity: item.Quantity}
			if err := tx.Create(&line).Error; err != nil {
				return err // Hook rejected the decrement
			}
			product := *item.Product
			product.Stock -= item.Quantity
			line.Product = &product
			order.Items = append(order.Items, line)
		}

		return tx.Where("customer_id = ?", customerID).Delete(&domain.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// newOrderReference returns a sortable unique reference like 20250908130500-<uuid4>
func newOrderReference() string {
	return time.Now().UTC().Format("20060102150405") + "-" + uuid.NewString()
}
