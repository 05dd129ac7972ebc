package api

import (
	"bytes"    // Report buffering
	"fmt"      // Confirmation message
	"io"       // Report writer
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"shopfront/internal/middleware" // Current user
	"shopfront/internal/report"     // Sales report
	"shopfront/internal/shop"       // Checkout and orders
	"shopfront/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// CheckoutHandler turns the customer's cart into an order
func CheckoutHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user := middleware.CurrentUser(c)
		order, err := shop.Checkout(ctx, db, user.ID)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"customer_id": user.ID,     // Customer
				"error":       err.Error(), // Error message
			}).Warn("Checkout rejected")
			respondError(c, err, "checkout")
			return
		}
		// Cached product details carry the old stock
		ids := make([]uint, 0, len(order.Items))
		for _, item := range order.Items {
			ids = append(ids, item.ProductID)
		}
		if err := utils.InvalidateProducts(ctx, rdb, ids...); err != nil {
			logrus.WithField("error", err.Error()).Warn("Failed to invalidate product cache")
		}
		logrus.WithFields(logrus.Fields{
			"customer_id": user.ID,          // Customer
			"order_id":    order.ID,         // New order
			"reference":   order.Reference,  // Order reference
			"items":       len(order.Items), // Line count
		}).Info("Order placed")
		c.JSON(http.StatusCreated, gin.H{
			"order_id":  order.ID,
			"reference": order.Reference,
			"success":   fmt.Sprintf("Order #%d placed!", order.ID),
		})
	}
}

// CustomerOrdersHandler lists the customer's orders with totals; 204 when there are none
func CustomerOrdersHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		orders, err := shop.CustomerOrders(c.Request.Context(), db, user.ID)
		if err != nil {
			respondError(c, err, "list orders")
			return
		}
		if len(orders) == 0 {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, newOrderViews(orders, media))
	}
}

// OrderSummaryHandler returns one of the customer's orders with its product lines and totals
func OrderSummaryHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseUint(c.Query("order_id"), 10, 64)
		if err != nil || orderID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required", "field": "order_id"})
			return
		}
		user := middleware.CurrentUser(c)
		order, err := shop.OrderForCustomer(c.Request.Context(), db, user.ID, uint(orderID))
		if err != nil {
			respondError(c, err, "order summary")
			return
		}
		c.JSON(http.StatusOK, newOrderView(order, media))
	}
}

// VendorOrdersHandler lists orders containing the vendor's products; 204 when there are none
func VendorOrdersHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		orders, err := shop.VendorOrders(c.Request.Context(), db, user.ID)
		if err != nil {
			respondError(c, err, "vendor orders")
			return
		}
		if len(orders) == 0 {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, newOrderViews(orders, media))
	}
}

// VendorReportHandler streams the vendor's sales summary as an xlsx download
func VendorReportHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		rows, err := report.VendorSales(c.Request.Context(), db, user.ID)
		if err != nil {
			respondError(c, err, "sales report")
			return
		}
		sendXLSX(c, "product_sales_summary.xlsx", func(w io.Writer) error {
			return report.WriteXLSX(w, rows)
		})
	}
}

// sendXLSX renders the whole workbook before any header is written; a render failure is a 500
func sendXLSX(c *gin.Context, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		respondError(c, fmt.Errorf("render %s: %w", filename, err), "sales report")
		return
	}
	// Set response headers for download
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// MarkPaidHandler records payment confirmation for an order
func MarkPaidHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		order, err := shop.MarkPaid(c.Request.Context(), db, id)
		if err != nil {
			respondError(c, err, "mark paid")
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id":  order.ID,                     // Order
			"admin_id":  middleware.CurrentUser(c).ID, // Actor
			"reference": order.Reference,              // Order reference
		}).Info("Order marked paid")
		c.JSON(http.StatusOK, newOrderView(order, media))
	}
}
