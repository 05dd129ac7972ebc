package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes

	"shopfront/internal/domain" // Domain errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// respondError writes the JSON error response for err; action names the failed operation in logs
func respondError(c *gin.Context, err error, action string) {
	var stockErr *domain.InsufficientStockError
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),        // Human readable message
			"product":   stockErr.Product,   // Product name
			"available": stockErr.Available, // Units in stock
			"requested": stockErr.Requested, // Units asked for
		})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "field": validationErr.Field})
	case errors.Is(err, domain.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	default:
		logrus.WithFields(logrus.Fields{
			"action": action,       // Failed operation
			"path":   c.FullPath(), // Route
			"error":  err.Error(),  // Error message
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// bindError reports a request body that failed binding or validation
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}
