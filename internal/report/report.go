// Package report builds the vendor sales summary spreadsheet.
package report

import (
	"context"
	"io"
	"sort"

	"shopfront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// SheetName is the name of the single worksheet in the export
const SheetName = "Sales Summary"

// Headers are the column titles of the export, in order
var Headers = []string{"Product Name", "Category", "Unit Price", "Total Quantity Sold", "Total Revenue"}

// SalesRow aggregates everything sold of one product
type SalesRow struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Category     string          `json:"category"` // "N/A" when uncategorized
	UnitPrice    decimal.Decimal `json:"unit_price"`
	QuantitySold int             `json:"total_quantity_sold"`
	Revenue      decimal.Decimal `json:"total_revenue"`
}

// VendorSales sums the order items of every product owned by vendorID,
// valued at the current product price, sorted by product name
func VendorSales(ctx context.Context, db *gorm.DB, vendorID uint) ([]SalesRow, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).
		Preload("Product.Category").
		Where("product_id IN (?)", db.Model(&domain.Product{}).Select("id").Where("vendor_id = ?", vendorID)).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	byProduct := make(map[uint]*SalesRow)
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		row, ok := byProduct[item.ProductID]
		if !ok {
			row = &SalesRow{
				ProductID:   item.ProductID,
				ProductName: item.Product.Name,
				Category:    "N/A",
				UnitPrice:   item.Product.Price,
				Revenue:     decimal.Zero,
			}
			if name := item.Product.CategoryName(); name != "" {
				row.Category = name
			}
			byProduct[item.ProductID] = row
		}
		row.QuantitySold += item.Quantity
		row.Revenue = row.Revenue.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	rows := make([]SalesRow, 0, len(byProduct))
	for _, row := range byProduct {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductName != rows[j].ProductName {
			return rows[i].ProductName < rows[j].ProductName
		}
		return rows[i].ProductID < rows[j].ProductID
	})
	return rows, nil
}

// WriteXLSX renders rows as a workbook with a bold header row
func WriteXLSX(w io.Writer, rows []SalesRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return err
	}

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	header := sheet.AddRow()
	for _, h := range Headers {
		cell := header.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.ProductName)
		row.AddCell().SetString(r.Category)
		row.AddCell().SetFloat(r.UnitPrice.Round(2).InexactFloat64())
		row.AddCell().SetInt(r.QuantitySold)
		row.AddCell().SetFloat(r.Revenue.Round(2).InexactFloat64())
	}
	return file.Write(w)
}
