package api

import (
	"strings"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/pricing"

	"github.com/shopspring/decimal"
)

// ProductView is the public representation of a product
type ProductView struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Image        *string         `json:"image"`
	Vendor       string          `json:"vendor"`
	CategoryID   *uint           `json:"category"`
	CategoryName *string         `json:"category_name"`
	Stock        int             `json:"stock"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CartItemView is a cart line with its product detail
type CartItemView struct {
	ID            uint         `json:"id"`
	Product       string       `json:"product"`
	ProductID     uint         `json:"product_id"`
	Quantity      int          `json:"quantity"`
	ProductDetail *ProductView `json:"product_detail"`
	AddedAt       time.Time    `json:"added_at"`
}

// OrderView is an order with its product lines and totals
type OrderView struct {
	ID             uint                  `json:"id"`
	Reference      string                `json:"reference"`
	Customer       string                `json:"customer"`
	OrderedAt      time.Time             `json:"ordered_at"`
	IsPaid         bool                  `json:"is_paid"`
	PaidAt         *time.Time            `json:"paid_at,omitempty"`
	Products       []pricing.SummaryLine `json:"products"`
	SubtotalAmount string                `json:"subtotal_amount"`
	TotalTax       string                `json:"total_tax"`
	FinalTotal     string                `json:"final_total"`
}

// UserView is the profile of an account
type UserView struct {
	ID        uint        `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsAdmin   bool        `json:"is_admin"`
	CreatedAt time.Time   `json:"created_at"`
}

func newUserView(u *domain.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

// mediaURL joins a stored image reference onto the media base URL
func mediaURL(base, image string) *string {
	if image == "" {
		return nil
	}
	if base != "" && !strings.Contains(image, "://") {
		image = strings.TrimRight(base, "/") + "/" + strings.TrimLeft(image, "/")
	}
	return &image
}

func newProductView(p *domain.Product, media string) *ProductView {
	if p == nil {
		return nil
	}
	v := &ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       mediaURL(media, p.Image),
		CategoryID:  p.CategoryID,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
	if p.Vendor != nil {
		v.Vendor = p.Vendor.Username
	}
	if name := p.CategoryName(); name != "" {
		v.CategoryName = &name
	}
	return v
}

func newProductViews(products []domain.Product, media string) []ProductView {
	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, *newProductView(&products[i], media))
	}
	return views
}

func newCartItemViews(items []domain.CartItem, media string) []CartItemView {
	views := make([]CartItemView, 0, len(items))
	for i := range items {
		views = append(views, newCartItemView(&items[i], media))
	}
	return views
}

func newCartItemView(item *domain.CartItem, media string) CartItemView {
	v := CartItemView{
		ID:            item.ID,
		ProductID:     item.ProductID,
		Quantity:      item.Quantity,
		ProductDetail: newProductView(item.Product, media),
		AddedAt:       item.AddedAt,
	}
	if item.Product != nil {
		v.Product = item.Product.Name
	}
	return v
}

func newOrderView(o *domain.Order, media string) OrderView {
	totals := pricing.Compute(o)
	lines := pricing.ProductSummary(o)
	for i := range lines {
		if lines[i].Image != nil {
			lines[i].Image = mediaURL(media, *lines[i].Image)
		}
	}
	v := OrderView{
		ID:             o.ID,
		Reference:      o.Reference,
		OrderedAt:      o.OrderedAt,
		IsPaid:         o.IsPaid,
		PaidAt:         o.PaidAt,
		Products:       lines,
		SubtotalAmount: totals.Subtotal.StringFixed(2),
		TotalTax:       totals.Tax.StringFixed(2),
		FinalTotal:     totals.FinalTotal.StringFixed(2),
	}
	if o.Customer != nil {
		v.Customer = o.Customer.Username
	}
	return v
}

func newOrderViews(orders []domain.Order, media string) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i], media))
	}
	return views
}
