package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category Model
type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`                      // Primary key
	Name     string `gorm:"size:100;uniqueIndex;not null" json:"name"` // Unique category name
	IsActive bool   `gorm:"not null" json:"is_active"`                 // Products follow this flag
}

// AfterSave copies the category's active flag onto every product that references it
func (c *Category) AfterSave(tx *gorm.DB) error {
	return tx.Model(&Product{}).
		Where("category_id = ?", c.ID).
		Update("is_active", c.IsActive).Error
}

// Product Model
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                    // Primary key
	VendorID    uint            `gorm:"not null;index" json:"vendor_id"`                         // Owning vendor
	Vendor      *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`  // Products go with their vendor
	CategoryID  *uint           `gorm:"index" json:"category_id"`                                // Optional category
	Category    *Category       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"` // Category survives product deletion
	Name        string          `gorm:"size:255;not null" json:"name"`                           // Display name
	Description string          `gorm:"type:text" json:"description"`                            // Free-form description
	IsActive    bool            `gorm:"not null" json:"is_active"`                               // Overwritten by the category flag
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`                // Unit price
	Stock       int             `gorm:"not null;check:chk_products_stock,stock >= 0" json:"stock"`
	Image       string          `gorm:"size:255" json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CategoryName returns the loaded category's name or an empty string
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
