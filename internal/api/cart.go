package api

import (
	"errors"   // Empty body detection
	"io"       // io.EOF
	"net/http" // HTTP status codes

	"shopfront/internal/middleware" // Current user
	"shopfront/internal/shop"       // Cart operations

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// CartRequest is the body of POST and PUT /cart
type CartRequest struct {
	ProductID uint `json:"product" binding:"required"` // Product to add or change
	Quantity  *int `json:"quantity"`                   // Defaults to 1 when adding
}

// CartRemoveRequest is the optional body of DELETE /cart
type CartRemoveRequest struct {
	ProductID uint `json:"product"` // Omitted to clear the whole cart
}

// GetCartHandler lists the customer's cart
func GetCartHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		items, err := shop.List(c.Request.Context(), db, user.ID)
		if err != nil {
			respondError(c, err, "list cart")
			return
		}
		c.JSON(http.StatusOK, newCartItemViews(items, media))
	}
}

// AddToCartHandler adds a product to the cart or increases its quantity
func AddToCartHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		quantity := 1 // Default quantity
		if req.Quantity != nil {
			quantity = *req.Quantity
		}
		user := middleware.CurrentUser(c)
		item, err := shop.AddOrIncrement(c.Request.Context(), db, user.ID, req.ProductID, quantity)
		if err != nil {
			respondError(c, err, "add to cart")
			return
		}
		logrus.WithFields(logrus.Fields{
			"customer_id": user.ID,       // Customer
			"product_id":  req.ProductID, // Product
			"quantity":    item.Quantity, // Resulting quantity
		}).Info("Cart updated")
		c.JSON(http.StatusOK, newCartItemView(item, media))
	}
}

// UpdateCartHandler sets the quantity of a product already in the cart
func UpdateCartHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if req.Quantity == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required", "field": "quantity"})
			return
		}
		user := middleware.CurrentUser(c)
		item, err := shop.SetQuantity(c.Request.Context(), db, user.ID, req.ProductID, *req.Quantity)
		if err != nil {
			respondError(c, err, "update cart")
			return
		}
		c.JSON(http.StatusOK, newCartItemView(item, media))
	}
}

// RemoveFromCartHandler removes one product, or empties the cart when no product is given
func RemoveFromCartHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartRemoveRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			bindError(c, err) // An empty body means clear
			return
		}
		ctx := c.Request.Context()
		user := middleware.CurrentUser(c)
		if req.ProductID == 0 {
			removed, err := shop.Clear(ctx, db, user.ID)
			if err != nil {
				respondError(c, err, "clear cart")
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "removed": removed})
			return
		}
		if err := shop.Remove(ctx, db, user.ID, req.ProductID); err != nil {
			respondError(c, err, "remove from cart")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
