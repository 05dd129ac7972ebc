package shop

import (
	"context"
	"errors"
	"strings"

	"shopfront/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CategoryUpdate carries the fields to change on a category; nil fields are left alone.
type CategoryUpdate struct {
	Name     *string
	IsActive *bool
}

// CreateCategory adds a category with a unique name.
func CreateCategory(ctx context.Context, db *gorm.DB, name string, active bool) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("name", "must not be empty")
	}
	category := domain.Category{Name: name, IsActive: active}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCategoryNameFree(tx, name, 0); err != nil {
			return err
		}
		return translateDuplicate(tx.Create(&category).Error, "name", "category with this name already exists")
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory renames and/or toggles a category. Saving the category
// pushes its active flag onto all of its products.
func UpdateCategory(ctx context.Context, db *gorm.DB, id uint, in CategoryUpdate) (*domain.Category, error) {
	var category domain.Category
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFoundf("category %d", id)
			}
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.Invalid("name", "must not be empty")
			}
			if err := ensureCategoryNameFree(tx, name, category.ID); err != nil {
				return err
			}
			category.Name = name
		}
		if in.IsActive != nil {
			category.IsActive = *in.IsActive
		}
		if err := tx.Save(&category).Error; err != nil {
			return translateDuplicate(err, "name", "category with this name already exists")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns categories whose name contains the filter, ignoring case.
func ListCategories(ctx context.Context, db *gorm.DB, name string) ([]domain.Category, error) {
	query := db.WithContext(ctx).Order("name")
	if name = strings.TrimSpace(name); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	var categories []domain.Category
	err := query.Find(&categories).Error
	return categories, err
}

// DeleteCategory removes a category; its products stay, without a category.
func DeleteCategory(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFoundf("category %d", id)
		}
		return nil
	})
}

// ProductInput describes a new product.
type ProductInput struct {
	Name        string
	Description string
	Image       string
	CategoryID  *uint
	Price       decimal.Decimal
	Stock       int
}

// ProductUpdate carries the fields to change on a product; nil fields are left alone.
type ProductUpdate struct {
	Name        *string
	Description *string
	Image       *string
	CategoryID  *uint
	Price       *decimal.Decimal
	Stock       *int
	IsActive    *bool
}

// ProductFilter narrows ListProducts. Zero values match everything.
type ProductFilter struct {
	Name     string // Name contains, ignoring case
	Category string // Category name contains, ignoring case
	VendorID uint   // Only this vendor's products
}

// CreateProduct lists a new product for a vendor.
func CreateProduct(ctx context.Context, db *gorm.DB, vendor *domain.User, in ProductInput) (*domain.Product, error) {
	if !vendor.IsVendor() {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.Invalid("name", "must not be empty")
	}
	if err := validatePriceStock(&in.Price, &in.Stock); err != nil {
		return nil, err
	}
	product := domain.Product{
		VendorID:    vendor.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Image:       in.Image,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		IsActive:    true,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.CategoryID != nil {
			category, err := activeCategory(tx, *in.CategoryID)
			if err != nil {
				return err
			}
			product.CategoryID = &category.ID
			product.Category = category
		}
		return tx.Omit("Category", "Vendor").Create(&product).Error
	})
	if err != nil {
		return nil, err
	}
	product.Vendor = vendor
	return &product, nil
}

// UpdateProduct changes a product. Only its vendor or an admin may do so.
func UpdateProduct(ctx context.Context, db *gorm.DB, actor *domain.User, id uint, in ProductUpdate) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwnedProduct(tx, actor, id, &product); err != nil {
			return err
		}
		changes := map[string]any{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.Invalid("name", "must not be empty")
			}
			changes["name"] = name
		}
		if in.Description != nil {
			changes["description"] = *in.Description
		}
		if in.Image != nil {
			changes["image"] = *in.Image
		}
		if err := validatePriceStock(in.Price, in.Stock); err != nil {
			return err
		}
		if in.Price != nil {
			changes["price"] = in.Price.Round(2)
		}
		if in.Stock != nil {
			changes["stock"] = *in.Stock
		}
		categoryActive := true
		if in.CategoryID != nil {
			category, err := activeCategory(tx, *in.CategoryID)
			if err != nil {
				return err
			}
			changes["category_id"] = category.ID
		} else if product.Category != nil {
			categoryActive = product.Category.IsActive
		}
		if in.IsActive != nil {
			if *in.IsActive && !categoryActive {
				return domain.Invalid("is_active", "category is not active")
			}
			changes["is_active"] = *in.IsActive
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&domain.Product{}).Where("id = ?", product.ID).Updates(changes).Error; err != nil {
			return err
		}
		product = domain.Product{}
		return tx.Preload("Category").Preload("Vendor").First(&product, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product. Only its vendor or an admin may do so.
func DeleteProduct(ctx context.Context, db *gorm.DB, actor *domain.User, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product domain.Product
		if err := loadOwnedProduct(tx, actor, id, &product); err != nil {
			return err
		}
		// Cart lines and order lines go with the product
		if err := tx.Where("product_id = ?", id).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Product{}, id).Error
	})
}

// GetProduct loads one product with its category and vendor.
func GetProduct(ctx context.Context, db *gorm.DB, id uint) (*domain.Product, error) {
	var product domain.Product
	if err := db.WithContext(ctx).Preload("Category").Preload("Vendor").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundf("product %d", id)
		}
		return nil, err
	}
	return &product, nil
}

// ListProducts returns products matching the filter, newest first.
func ListProducts(ctx context.Context, db *gorm.DB, f ProductFilter) ([]domain.Product, error) {
	query := db.WithContext(ctx).Model(&domain.Product{}).Preload("Category").Preload("Vendor")
	if name := strings.TrimSpace(f.Name); name != "" {
		query = query.Where("LOWER(products.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if category := strings.TrimSpace(f.Category); category != "" {
		query = query.Where("products.category_id IN (?)",
			db.Model(&domain.Category{}).Select("id").Where("LOWER(name) LIKE ?", "%"+strings.ToLower(category)+"%"))
	}
	if f.VendorID != 0 {
		query = query.Where("products.vendor_id = ?", f.VendorID)
	}
	var products []domain.Product
	err := query.Order("products.created_at desc, products.id desc").Find(&products).Error
	return products, err
}

// ProductIDsInCategory lists the ids of a category's products.
func ProductIDsInCategory(ctx context.Context, db *gorm.DB, categoryID uint) ([]uint, error) {
	var ids []uint
	err := db.WithContext(ctx).Model(&domain.Product{}).Where("category_id = ?", categoryID).Pluck("id", &ids).Error
	return ids, err
}

func loadOwnedProduct(tx *gorm.DB, actor *domain.User, id uint, product *domain.Product) error {
	if err := tx.Preload("Category").Preload("Vendor").First(product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NotFoundf("product %d", id)
		}
		return err
	}
	if !actor.IsAdmin && product.VendorID != actor.ID {
		return domain.ErrForbidden
	}
	return nil
}

func activeCategory(tx *gorm.DB, id uint) (*domain.Category, error) {
	var category domain.Category
	if err := tx.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Invalid("category", "category does not exist")
		}
		return nil, err
	}
	if !category.IsActive {
		return nil, domain.Invalid("category", "selected category is not active")
	}
	return &category, nil
}

func validatePriceStock(price *decimal.Decimal, stock *int) error {
	if price != nil && price.IsNegative() {
		return domain.Invalid("price", "must not be negative")
	}
	if stock != nil && *stock < 0 {
		return domain.Invalid("stock", "must not be negative")
	}
	return nil
}

func ensureCategoryNameFree(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Model(&domain.Category{}).Where("name = ? AND id <> ?", name, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.Invalid("name", "category with this name already exists")
	}
	return nil
}

func translateDuplicate(err error, field, message string) error {
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Invalid(field, message)
	}
	return err
}
