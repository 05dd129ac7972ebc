// Package shop holds the catalog, cart, checkout and order operations.
//
// Every function takes the request context and a *gorm.DB and returns
// domain errors (domain.ErrNotFound, *domain.InsufficientStockError,
// *domain.ValidationError, ...) that the HTTP layer maps to status codes.
package shop

import (
	"context"
	"errors"

	"shopfront/internal/domain"

	"gorm.io/gorm"
)

// AddOrIncrement puts quantity units of a product into the customer's cart,
// adding to the existing line when there is one.
func AddOrIncrement(ctx context.Context, db *gorm.DB, customerID, productID uint, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity", "must be at least 1")
	}
	var item domain.CartItem
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := findProduct(tx, productID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return domain.Invalid("product", "product is not available")
		}
		// Look for an existing line for this customer and product
		err = tx.Where("customer_id = ? AND product_id = ?", customerID, productID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := checkStock(product, quantity); err != nil {
				return err
			}
			item = domain.CartItem{CustomerID: customerID, ProductID: productID, Quantity: quantity}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := checkStock(product, item.Quantity+quantity); err != nil {
				return err
			}
			if err := tx.Model(&domain.CartItem{}).Where("id = ?", item.ID).Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return err
			}
			item.Quantity += quantity
		}
		item.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetQuantity replaces the quantity of an existing cart line.
func SetQuantity(ctx context.Context, db *gorm.DB, customerID, productID uint, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Invalid("quantity", "must be at least 1")
	}
	var item domain.CartItem
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Product").
			Where("customer_id = ? AND product_id = ?", customerID, productID).
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundf("cart item for product %d", productID)
		}
		if err != nil {
			return err
		}
		if item.Product == nil {
			return domain.NotFoundf("product %d", productID)
		}
		if err := checkStock(item.Product, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		return tx.Model(&domain.CartItem{}).Where("id = ?", item.ID).Update("quantity", quantity).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes the customer's cart line for a product.
func Remove(ctx context.Context, db *gorm.DB, customerID, productID uint) error {
	res := db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&domain.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf("cart item for product %d", productID)
	}
	return nil
}

// Clear empties the customer's cart and reports how many lines were removed.
func Clear(ctx context.Context, db *gorm.DB, customerID uint) (int64, error) {
	res := db.WithContext(ctx).Where("customer_id = ?", customerID).Delete(&domain.CartItem{})
	return res.RowsAffected, res.Error
}

// List returns the customer's cart lines with their products.
func List(ctx context.Context, db *gorm.DB, customerID uint) ([]domain.CartItem, error) {
	var items []domain.CartItem
	err := db.WithContext(ctx).
		Preload("Product.Category").
		Preload("Product.Vendor").
		Where("customer_id = ?", customerID).
		Order("id").
		Find(&items).Error
	return items, err
}

func findProduct(tx *gorm.DB, productID uint) (*domain.Product, error) {
	var product domain.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("product %d", productID)
		}
		return nil, err
	}
	return &product, nil
}

func checkStock(product *domain.Product, quantity int) error {
	if quantity > product.Stock {
		return &domain.InsufficientStockError{
			ProductID: product.ID,
			Product:   product.Name,
			Available: product.Stock,
			Requested: quantity,
		}
	}
	return nil
}
