package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// CartItem Model
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                                                    // Primary key
	CustomerID uint      `gorm:"not null;uniqueIndex:idx_cart_customer_product" json:"customer_id"`       // Owning customer
	Customer   *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`                  // Weak link to the customer
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_cart_customer_product" json:"product"`           // Referenced product
	Product    *Product  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product_detail"`     // Weak link to the product
	Quantity   int       `gorm:"not null" json:"quantity"`                                                // Always >= 1
	AddedAt    time.Time `gorm:"autoCreateTime" json:"added_at"`                                          // First time the product was added
}

// Order Model
type Order struct {
	ID         uint        `gorm:"primaryKey" json:"id"`                                   // Primary key
	CustomerID uint        `gorm:"not null;index" json:"customer_id"`                      // Ordering customer
	Customer   *User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Loaded for display only
	Reference  string      `gorm:"size:64;uniqueIndex;not null" json:"reference"`          // Human facing order reference
	OrderedAt  time.Time   `gorm:"autoCreateTime" json:"ordered_at"`                       // Checkout time
	IsPaid     bool        `gorm:"not null;default:false" json:"is_paid"`                  // Set by payment confirmation
	PaidAt     *time.Time  `json:"paid_at"`                                                // Payment confirmation time
	Items      []OrderItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem Model
type OrderItem struct {
	ID        uint     `gorm:"primaryKey" json:"id"`                                   // Primary key
	OrderID   uint     `gorm:"not null;index" json:"order_id"`                         // Owning order
	ProductID uint     `gorm:"not null;index" json:"product_id"`                       // Purchased product
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Price is read live from here
	Quantity  int      `gorm:"not null" json:"quantity"`                               // Quantity captured at purchase time
}

// BeforeCreate takes the item's quantity out of the product's stock.
// This is the only place stock is decremented; the conditional update keeps
// stock from going negative under concurrent checkouts.
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.Quantity < 1 {
		return Invalid("quantity", "must be at least 1")
	}
	res := tx.Model(&Product{}).
		Where("id = ? AND stock >= ?", i.ProductID, i.Quantity).
		Update("stock", gorm.Expr("stock - ?", i.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var product Product
	if err := tx.Select("id", "name", "stock").First(&product, i.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFoundf("product %d", i.ProductID)
		}
		return err
	}
	return &InsufficientStockError{
		ProductID: product.ID,
		Product:   product.Name,
		Available: product.Stock,
		Requested: i.Quantity,
	}
}

// BillingAddress Model
type BillingAddress struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                   // Primary key
	UserID    uint      `gorm:"not null;index" json:"user"`                             // Owning user
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Addresses go with the user
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Email     string    `gorm:"size:254;not null" json:"email"`
	Phone     string    `gorm:"size:20;not null" json:"phone"`
	Address   string    `gorm:"type:text;not null" json:"address"`
	City      string    `gorm:"size:100;not null" json:"city"`
	ZipCode   string    `gorm:"size:20;not null" json:"zip_code"`
	Country   string    `gorm:"size:2;not null" json:"country"` // ISO 3166-1 alpha-2
	CreatedAt time.Time `json:"created_at"`
}
