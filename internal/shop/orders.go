package shop

import (
	"context"
	"errors"
	"time"

	"shopfront/internal/domain"

	"gorm.io/gorm"
)

// OrderFilter narrows the admin order listing. Zero values match everything.
type OrderFilter struct {
	CustomerID uint
	Paid       *bool
	From       *time.Time
	To         *time.Time
}

// CustomerOrders returns a customer's orders, newest first, with items and products loaded.
func CustomerOrders(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.Order, error) {
	var orders []domain.Order
	err := withOrderDetail(db.WithContext(ctx)).
		Where("customer_id = ?", customerID).
		Order("ordered_at desc, id desc").
		Find(&orders).Error
	return orders, err
}

// OrderForCustomer loads one of the customer's orders. Orders of other
// customers are reported as not found.
func OrderForCustomer(ctx context.Context, db *gorm.DB, customerID, orderID uint) (*domain.Order, error) {
	var order domain.Order
	err := withOrderDetail(db.WithContext(ctx)).
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundf("order %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VendorOrders returns every order that contains at least one of the vendor's products.
func VendorOrders(ctx context.Context, db *gorm.DB, vendorID uint) ([]domain.Order, error) {
	orderIDs := db.Model(&domain.OrderItem{}).
		Select("order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("products.vendor_id = ?", vendorID)
	var orders []domain.Order
	err := withOrderDetail(db.WithContext(ctx)).
		Where("id IN (?)", orderIDs).
		Order("ordered_at desc, id desc").
		Find(&orders).Error
	return orders, err
}

// ListOrders pages through all orders for administrators.
func ListOrders(ctx context.Context, db *gorm.DB, f OrderFilter, offset, limit int) ([]domain.Order, int64, error) {
	query := db.WithContext(ctx).Model(&domain.Order{})
	if f.CustomerID != 0 {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	if f.Paid != nil {
		query = query.Where("is_paid = ?", *f.Paid)
	}
	if f.From != nil {
		query = query.Where("ordered_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("ordered_at <= ?", *f.To)
	}
	query = query.Session(&gorm.Session{}) // Safe to reuse for count and fetch
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []domain.Order
	err := withOrderDetail(query).
		Order("ordered_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

// MarkPaid records payment confirmation for an order.
func MarkPaid(ctx context.Context, db *gorm.DB, orderID uint) (*domain.Order, error) {
	now := time.Now()
	var order domain.Order
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND is_paid = ?", orderID, false).
			Updates(map[string]any{"is_paid": true, "paid_at": now})
		if res.Error != nil {
			return res.Error
		}
		if err := withOrderDetail(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundf("order %d", orderID)
			}
			return err
		}
		if res.RowsAffected == 0 {
			return domain.Invalid("is_paid", "order is already paid")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func withOrderDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.Product")
}
