package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations

	"shopfront/internal/domain" // Importing domain models
	"shopfront/internal/shop"   // Order listing
	"shopfront/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

const adminUsersTTL = 60 * time.Second // Admin user listing cache lifetime

// pagination reads ?page= and ?page_size= (1..100), defaulting to page 1 of 20
func pagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20 // Defaults
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v // Set page if valid
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v // Set page size within limits
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}

// UserPage is one page of the admin user listing
type UserPage struct {
	Users      []UserView `json:"users"`       // List of users
	Page       int        `json:"page"`        // Current page
	PageSize   int        `json:"page_size"`   // Page size
	Total      int64      `json:"total"`       // Total number of users
	TotalPages int        `json:"total_pages"` // Total pages
	Cached     bool       `json:"cached"`      // Served from Redis
}

// ListUsersHandler pages through all accounts, optionally filtered by ?role=
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		role := domain.Role(strings.ToLower(c.Query("role")))
		if role != "" && !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role", "field": "role"})
			return
		}
		// Cache key from the normalized query
		cacheKey := "admin:users:role=" + string(role) + ":page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached UserPage
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}

		query := db.WithContext(ctx).Model(&domain.User{})
		if role != "" {
			query = query.Where("role = ?", role) // Filter by role
		}
		query = query.Session(&gorm.Session{})
		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err, "count users")
			return
		}
		var users []domain.User
		if err := query.Order("id").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
			respondError(c, err, "list users")
			return
		}
		resp := UserPage{
			Users:      make([]UserView, 0, len(users)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages(total, pageSize),
		}
		for i := range users {
			resp.Users = append(resp.Users, newUserView(&users[i]))
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, adminUsersTTL) // Cache for future requests
		c.JSON(http.StatusOK, resp)
	}
}

// ListOrdersHandler pages through all orders, filtered by ?customer_id=, ?paid= and ?from= / ?to= (RFC 3339)
func ListOrdersHandler(db *gorm.DB, media string) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c)
		var filter shop.OrderFilter
		if v := c.Query("customer_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_id", "field": "customer_id"})
				return
			}
			filter.CustomerID = uint(id)
		}
		if v := c.Query("paid"); v != "" {
			paid, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid paid flag", "field": "paid"})
				return
			}
			filter.Paid = &paid
		}
		for _, bound := range []struct {
			name string
			dst  **time.Time
		}{{"from", &filter.From}, {"to", &filter.To}} {
			v := c.Query(bound.name)
			if v == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected RFC 3339", "field": bound.name})
				return
			}
			*bound.dst = &t
		}

		orders, total, err := shop.ListOrders(c.Request.Context(), db, filter, (page-1)*pageSize, pageSize)
		if err != nil {
			respondError(c, err, "list orders")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"orders":      newOrderViews(orders, media), // Orders with totals
			"page":        page,                          // Current page
			"page_size":   pageSize,                      // Page size
			"total":       total,                         // Total number of orders
			"total_pages": totalPages(total, pageSize),   // Total pages
		})
	}
}
