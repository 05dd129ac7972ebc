// Package testutil builds throwaway backends for package tests.
package testutil

import (
	"strings"
	"testing"

	"shopfront/internal/db"
	"shopfront/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database.
// It holds a single connection so transactions are serialized.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := db.Config()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	gdb, err := gorm.Open(sqlite.Open(":memory:"), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := gdb.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// NewRedis starts a miniredis server and returns a client connected to it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// CreateUser inserts a user with the given role and password "password123".
func CreateUser(t testing.TB, gdb *gorm.DB, username string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &domain.User{
		Username: strings.ToLower(username),
		Email:    strings.ToLower(username) + "@example.com",
		Password: string(hash),
		Role:     role,
		IsAdmin:  role == domain.RoleAdmin,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateCategory inserts a category.
func CreateCategory(t testing.TB, gdb *gorm.DB, name string, active bool) *domain.Category {
	t.Helper()
	category := &domain.Category{Name: name, IsActive: active}
	if err := gdb.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

// CreateProduct inserts an active product owned by vendor.
func CreateProduct(t testing.TB, gdb *gorm.DB, vendor *domain.User, category *domain.Category, name, price string, stock int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		VendorID: vendor.ID,
		Name:     name,
		IsActive: true,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
	if category != nil {
		product.CategoryID = &category.ID
		product.IsActive = category.IsActive
	}
	if err := gdb.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// Stock reads a product's current stock.
func Stock(t testing.TB, gdb *gorm.DB, productID uint) int {
	t.Helper()
	var product domain.Product
	if err := gdb.Select("stock").First(&product, productID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Stock
}
