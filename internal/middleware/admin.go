package middleware

import (
	"net/http" // HTTP status codes

	"shopfront/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// UserKey is the context key holding the authenticated *domain.User
const UserKey = "user"

// LoadUser fetches the authenticated user from the database on each request
func LoadUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Set by JWTAuthMiddleware
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			// Token outlived its user
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			return
		}
		c.Set(UserKey, &user) // Store user for handlers
		c.Next()
	}
}

// LoadOptionalUser loads the user when userID is set and otherwise continues anonymously
func LoadOptionalUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, exists := c.Get("userID"); exists {
			var user domain.User
			if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err == nil {
				c.Set(UserKey, &user)
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by LoadUser
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

// RequireRole lets the request through if the user has one of the roles; admins always pass
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if user.IsAdmin {
			c.Next() // Admin privilege overrides role checks
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	}
}

// RequireCustomer admits only customers; admin privilege does not grant a cart
func RequireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !user.IsCustomer() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Only customers can use the cart and place orders"})
			return
		}
		c.Next()
	}
}

// AdminOnlyMiddleware checks the user's admin privilege
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// VendorOrAdminMiddleware admits vendors and admins
func VendorOrAdminMiddleware() gin.HandlerFunc {
	return RequireRole(domain.RoleVendor, domain.RoleAdmin)
}
