// Package pricing derives order totals from an order's line items.
//
// Prices are read from each item's loaded Product, so totals follow the
// current catalog price rather than a price frozen at checkout.
package pricing

import (
	"shopfront/internal/domain"

	"github.com/shopspring/decimal"
)

// TaxRate applied to an order's subtotal.
var TaxRate = decimal.RequireFromString("0.10")

// SummaryLine is one product row of an order summary.
type SummaryLine struct {
	Name      string          `json:"product_name"`
	Image     *string         `json:"image"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Totals holds the amounts derived from a single subtotal.
type Totals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	FinalTotal decimal.Decimal
}

// ProductSummary lists the order's items in stored order.
func ProductSummary(order *domain.Order) []SummaryLine {
	lines := make([]SummaryLine, 0, len(order.Items))
	for _, item := range order.Items {
		line := SummaryLine{Quantity: item.Quantity, UnitPrice: decimal.Zero}
		if item.Product != nil {
			line.Name = item.Product.Name
			line.UnitPrice = item.Product.Price
			if item.Product.Image != "" {
				image := item.Product.Image
				line.Image = &image
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// Subtotal is the exact sum of price × quantity over all items.
func Subtotal(order *domain.Order) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range order.Items {
		sum = sum.Add(LineTotal(item))
	}
	return sum
}

// LineTotal is price × quantity for one item; items without a loaded product count as zero.
func LineTotal(item domain.OrderItem) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Tax is the subtotal times TaxRate, rounded half away from zero to 2 places.
func Tax(order *domain.Order) decimal.Decimal {
	return taxOn(Subtotal(order))
}

// FinalTotal is subtotal plus tax, rounded to 2 places.
func FinalTotal(order *domain.Order) decimal.Decimal {
	return Compute(order).FinalTotal
}

// Compute derives subtotal, tax and final total from one subtotal value.
func Compute(order *domain.Order) Totals {
	subtotal := Subtotal(order)
	tax := taxOn(subtotal)
	return Totals{
		Subtotal:   subtotal,
		Tax:        tax,
		FinalTotal: subtotal.Add(tax).Round(2),
	}
}

func taxOn(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}
