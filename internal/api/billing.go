package api

import (
	"errors"
	"net/http"
	"strings"

	"shopfront/internal/domain"
	"shopfront/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BillingAddressRequest is the body of POST and PUT /billing-addresses
type BillingAddressRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Phone     string `json:"phone" binding:"required,max=20"`
	Address   string `json:"address" binding:"required"`
	City      string `json:"city" binding:"required,max=100"`
	ZipCode   string `json:"zip_code" binding:"required,max=20"`
	Country   string `json:"country" binding:"required,iso3166_1_alpha2"`
}

func (r BillingAddressRequest) apply(a *domain.BillingAddress) {
	a.FirstName = r.FirstName
	a.LastName = r.LastName
	a.Email = r.Email
	a.Phone = r.Phone
	a.Address = r.Address
	a.City = r.City
	a.ZipCode = r.ZipCode
	a.Country = strings.ToUpper(r.Country)
}

// findAddress loads one of the user's addresses; other users' addresses are not found
func findAddress(c *gin.Context, db *gorm.DB, address *domain.BillingAddress) bool {
	id, ok := idParam(c)
	if !ok {
		return false
	}
	user := middleware.CurrentUser(c)
	err := db.WithContext(c.Request.Context()).Where("id = ? AND user_id = ?", id, user.ID).First(address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = domain.NotFoundf("billing address %d", id)
	}
	if err != nil {
		respondError(c, err, "load billing address")
		return false
	}
	return true
}

// ListBillingAddressesHandler lists the user's addresses, newest first
func ListBillingAddressesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		var addresses []domain.BillingAddress
		err := db.WithContext(c.Request.Context()).
			Where("user_id = ?", user.ID).
			Order("created_at desc, id desc").
			Find(&addresses).Error
		if err != nil {
			respondError(c, err, "list billing addresses")
			return
		}
		c.JSON(http.StatusOK, addresses)
	}
}

// CreateBillingAddressHandler stores a new address for the user
func CreateBillingAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BillingAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		address := domain.BillingAddress{UserID: middleware.CurrentUser(c).ID}
		req.apply(&address)
		if err := db.WithContext(c.Request.Context()).Create(&address).Error; err != nil {
			respondError(c, err, "create billing address")
			return
		}
		c.JSON(http.StatusCreated, address)
	}
}

// GetBillingAddressHandler returns one of the user's addresses
func GetBillingAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var address domain.BillingAddress
		if !findAddress(c, db, &address) {
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

// UpdateBillingAddressHandler replaces one of the user's addresses
func UpdateBillingAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BillingAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		var address domain.BillingAddress
		if !findAddress(c, db, &address) {
			return
		}
		req.apply(&address)
		if err := db.WithContext(c.Request.Context()).Omit("User").Save(&address).Error; err != nil {
			respondError(c, err, "update billing address")
			return
		}
		c.JSON(http.StatusOK, address)
	}
}

// DeleteBillingAddressHandler removes one of the user's addresses
func DeleteBillingAddressHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var address domain.BillingAddress
		if !findAddress(c, db, &address) {
			return
		}
		if err := db.WithContext(c.Request.Context()).Delete(&domain.BillingAddress{}, address.ID).Error; err != nil {
			respondError(c, err, "delete billing address")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
