package api

import (
	"context" // Context for OTP operations
	"time"    // Token lifetime

	"shopfront/internal/mailer"     // Outgoing email
	"shopfront/internal/middleware" // Auth and role guards
	"shopfront/internal/otp"        // Password reset codes

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// MailQueue accepts email for background delivery
type MailQueue interface {
	Enqueue(msg mailer.Message) bool
}

// OTPStore issues and checks password reset codes
type OTPStore interface {
	Issue(ctx context.Context, username string) (string, error)
	Verify(ctx context.Context, username, code string) (otp.Result, error)
	Clear(ctx context.Context, username string) error
	TTL() time.Duration
}

// Deps are the services the handlers run against
type Deps struct {
	DB        *gorm.DB      // Primary store
	Redis     *redis.Client // Cache; nil disables caching
	Mail      MailQueue     // Notification email
	OTP       OTPStore      // Password reset codes
	JWTSecret string        // HMAC key for access tokens
	TokenTTL  time.Duration // Access token lifetime
	MediaURL  string        // Base URL for product images
}

// SetupRoutes registers every endpoint on r
func SetupRoutes(r *gin.Engine, d Deps) {
	db, rdb := d.DB, d.Redis
	auth := []gin.HandlerFunc{middleware.JWTAuthMiddleware(d.JWTSecret), middleware.LoadUser(db)}
	optional := []gin.HandlerFunc{middleware.OptionalAuthMiddleware(d.JWTSecret), middleware.LoadOptionalUser(db)}

	// Accounts
	r.POST("/register", RegisterHandler(db, d.Mail))
	r.POST("/token", LoginHandler(db, d.JWTSecret, d.TokenTTL))
	r.GET("/user", with(auth, MeHandler())...)
	r.POST("/password-reset/request", RequestPasswordResetHandler(db, d.OTP, d.Mail))
	r.POST("/password-reset/confirm", ConfirmPasswordResetHandler(db, d.OTP))

	// Catalog; reads are public, writes are guarded
	r.GET("/categories", ListCategoriesHandler(db))
	categories := r.Group("/categories", with(auth, middleware.AdminOnlyMiddleware())...)
	categories.POST("", CreateCategoryHandler(db))
	categories.PUT("/:id", UpdateCategoryHandler(db, rdb))
	categories.DELETE("/:id", DeleteCategoryHandler(db, rdb))

	r.GET("/products", with(optional, ListProductsHandler(db, d.MediaURL))...)
	r.GET("/products/:id", GetProductHandler(db, rdb, d.MediaURL))
	products := r.Group("/products", with(auth, middleware.VendorOrAdminMiddleware())...)
	products.POST("", CreateProductHandler(db, d.MediaURL))
	products.PUT("/:id", UpdateProductHandler(db, rdb, d.MediaURL))
	products.DELETE("/:id", DeleteProductHandler(db, rdb))

	// Cart, checkout and orders for customers
	customer := r.Group("", with(auth, middleware.RequireCustomer())...)
	customer.GET("/cart", GetCartHandler(db, d.MediaURL))
	customer.POST("/cart", AddToCartHandler(db, d.MediaURL))
	customer.PUT("/cart", UpdateCartHandler(db, d.MediaURL))
	customer.DELETE("/cart", RemoveFromCartHandler(db))
	customer.POST("/checkout", CheckoutHandler(db, rdb))
	customer.GET("/orders", CustomerOrdersHandler(db, d.MediaURL))
	customer.GET("/order/summary", OrderSummaryHandler(db, d.MediaURL))

	// Vendor views
	vendor := r.Group("/vendor", with(auth, middleware.VendorOrAdminMiddleware())...)
	vendor.GET("/orders", VendorOrdersHandler(db, d.MediaURL))
	vendor.GET("/report", VendorReportHandler(db))

	// Billing addresses of the authenticated user
	billing := r.Group("/billing-addresses", auth...)
	billing.GET("", ListBillingAddressesHandler(db))
	billing.POST("", CreateBillingAddressHandler(db))
	billing.GET("/:id", GetBillingAddressHandler(db))
	billing.PUT("/:id", UpdateBillingAddressHandler(db))
	billing.DELETE("/:id", DeleteBillingAddressHandler(db))

	// Administration
	admin := r.Group("/admin", with(auth, middleware.AdminOnlyMiddleware())...)
	admin.GET("/users", ListUsersHandler(db, rdb))
	admin.GET("/orders", ListOrdersHandler(db, d.MediaURL))
	admin.POST("/orders/:id/paid", MarkPaidHandler(db, d.MediaURL))
}

// with returns a new handler chain of base followed by more
func with(base []gin.HandlerFunc, more ...gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(base)+len(more))
	chain = append(chain, base...)
	return append(chain, more...)
}
