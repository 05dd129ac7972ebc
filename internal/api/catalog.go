package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Path parameter parsing

	"shopfront/internal/middleware" // Current user
	"shopfront/internal/shop"       // Catalog operations
	"shopfront/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Prices
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// CategoryRequest is the body of POST /categories
type CategoryRequest struct {
	Name     string `json:"name" binding:"required,max=100"` // Unique name
	IsActive *bool  `json:"is_active"`                       // Defaults to true
}

// CategoryPatch is the body of PUT /categories/:id
type CategoryPatch struct {
	Name     *string `json:"name" binding:"omitempty,max=100"` // New name
	IsActive *bool   `json:"is_active"`                        // Cascades to products
}

// ProductRequest is the body of POST /products
type ProductRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       int              `json:"stock" binding:"min=0"`
	Image       string           `json:"image" binding:"max=255"`
	CategoryID  *uint            `json:"category"`
}

// ProductPatch is the body of PUT /products/:id
type ProductPatch struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" binding:"omitempty,min=0"`
	Image       *string          `json:"image" binding:"omitempty,max=255"`
	CategoryID  *uint            `json:"category"`
	IsActive    *bool            `json:"is_active"`
}

// idParam parses the :id path parameter, writing a 400 when it is malformed
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// ListCategoriesHandler lists categories, optionally filtered by ?name=
func ListCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := shop.ListCategories(c.Request.Context(), db, c.Query("name"))
		if err != nil {
			respondError(c, err, "list categories")
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// CreateCategoryHandler adds a category
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		active := true // New categories are active unless stated
		if req.IsActive != nil {
			active = *req.IsActive
		}
		category, err := shop.CreateCategory(c.Request.Context(), db, req.Name, active)
		if err != nil {
			respondError(c, err, "create category")
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// UpdateCategoryHandler renames or toggles a category; its products follow the active flag
func UpdateCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req CategoryPatch
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		ctx := c.Request.Context()
		category, err := shop.UpdateCategory(ctx, db, id, shop.CategoryUpdate{Name: req.Name, IsActive: req.IsActive})
		if err != nil {
			respondError(c, err, "update category")
			return
		}
		invalidateCategoryProducts(c, db, rdb, id) // Cached products carry the old flag
		logrus.WithFields(logrus.Fields{
			"category_id": category.ID,       // Category
			"is_active":   category.IsActive, // New flag
		}).Info("Category updated")
		c.JSON(http.StatusOK, category)
	}
}

// DeleteCategoryHandler removes a category; its products become uncategorized
func DeleteCategoryHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		ids, err := shop.ProductIDsInCategory(ctx, db, id)
		if err != nil {
			respondError(c, err, "delete category")
			return
		}
		if err := shop.DeleteCategory(ctx, db, id); err != nil {
			respondError(c, err, "delete category")
			return
		}
		if err := utils.InvalidateProducts(ctx, rdb, ids...); err != nil {
			logrus.WithField("error", err.Error()).Warn("Failed to invalidate product cache")
		}
		c.Status(http.StatusNoContent)
	}
}

func invalidateCategoryProducts(c *gin.Context, db *gorm.DB, rdb *redis.Client, categoryID uint) {
	if rdb == nil {
		return
	}
	ctx := c.Request.Context()
	ids, err := shop.ProductIDsInCategory(ctx, db, categoryID)
	if err == nil {
		err = utils.InvalidateProducts(ctx, rdb, ids...)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"category_id": categoryID, "error": err.Error()}).Warn("Failed to invalidate product cache")
	}
}

// ListProductsHandler lists products filtered by ?name= and ?category=; vendors only see their own
func ListProductsHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := shop.ProductFilter{Name: c.Query("name"), Category: c.Query("category")}
		if user := middleware.CurrentUser(c); user != nil && user.IsVendor() {
			filter.VendorID = user.ID // Vendors manage their own listing
		}
		products, err := shop.ListProducts(c.Request.Context(), db, filter)
		if err != nil {
			respondError(c, err, "list products")
			return
		}
		c.JSON(http.StatusOK, newProductViews(products, media))
	}
}

// GetProductHandler returns one product, served from Redis when cached
func GetProductHandler(db *gorm.DB, rdb *redis.Client, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		var cached ProductView
		if found, err := utils.GetCache(ctx, rdb, utils.ProductKey(id), &cached); err == nil && found {
			c.JSON(http.StatusOK, cached) // Cache hit
			return
		}
		product, err := shop.GetProduct(ctx, db, id)
		if err != nil {
			respondError(c, err, "get product")
			return
		}
		view := newProductView(product, media)
		_ = utils.SetCache(ctx, rdb, utils.ProductKey(id), view, utils.ProductTTL) // Best effort
		c.JSON(http.StatusOK, view)
	}
}

// CreateProductHandler lists a product for the authenticated vendor
func CreateProductHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		user := middleware.CurrentUser(c)
		product, err := shop.CreateProduct(c.Request.Context(), db, user, shop.ProductInput{
			Name:        req.Name,
			Description: req.Description,
			Image:       req.Image,
			CategoryID:  req.CategoryID,
			Price:       *req.Price,
			Stock:       req.Stock,
		})
		if err != nil {
			respondError(c, err, "create product")
			return
		}
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID,    // New product
			"vendor_id":  user.ID,       // Owner
			"stock":      product.Stock, // Initial stock
		}).Info("Product created")
		c.JSON(http.StatusCreated, newProductView(product, media))
	}
}

// UpdateProductHandler changes a product owned by the vendor, or any product for admins
func UpdateProductHandler(db *gorm.DB, rdb *redis.Client, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req ProductPatch
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		ctx := c.Request.Context()
		user := middleware.CurrentUser(c)
		product, err := shop.UpdateProduct(ctx, db, user, id, shop.ProductUpdate{
			Name:        req.Name,
			Description: req.Description,
			Image:       req.Image,
			CategoryID:  req.CategoryID,
			Price:       req.Price,
			Stock:       req.Stock,
			IsActive:    req.IsActive,
		})
		if err != nil {
			respondError(c, err, "update product")
			return
		}
		_ = utils.InvalidateProducts(ctx, rdb, id) // Drop stale detail
		logrus.WithFields(logrus.Fields{
			"product_id": id,      // Product
			"user_id":    user.ID, // Actor
		}).Info("Product updated")
		c.JSON(http.StatusOK, newProductView(product, media))
	}
}

// DeleteProductHandler removes a product owned by the vendor, or any product for admins
func DeleteProductHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		user := middleware.CurrentUser(c)
		if err := shop.DeleteProduct(ctx, db, user, id); err != nil {
			respondError(c, err, "delete product")
			return
		}
		_ = utils.InvalidateProducts(ctx, rdb, id)
		logrus.WithFields(logrus.Fields{
			"product_id": id,      // Product
			"user_id":    user.ID, // Actor
		}).Info("Product deleted")
		c.Status(http.StatusNoContent)
	}
}
