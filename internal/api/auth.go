package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"strings"  // String manipulation
	"time"     // Token lifetime

	"shopfront/internal/domain"     // Importing domain models
	"shopfront/internal/mailer"     // Welcome email
	"shopfront/internal/middleware" // Current user
	"shopfront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Username string      `json:"username" binding:"required"`                    // Username must be provided
	Email    string      `json:"email" binding:"required,email"`                 // Contact address
	Password string      `json:"password" binding:"required"`                    // Password must be provided
	Role     domain.Role `json:"role" binding:"omitempty,oneof=vendor customer"` // Defaults to customer
}

// LoginRequest is the body of POST /token
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// AuthResponse carries an access token
type AuthResponse struct {
	Token     string `json:"token"`      // JWT token
	ExpiresIn int64  `json:"expires_in"` // Lifetime in seconds
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// isValidUsername checks that the username is alphanumeric and not too long
func isValidUsername(username string) bool {
	return len(username) <= 150 && usernamePattern.MatchString(username)
}

// isValidPassword checks that the password length is between 8 and 64 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 64
}

// RegisterHandler creates a vendor or customer account and queues a welcome email
func RegisterHandler(db *gorm.DB, mail MailQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if !isValidUsername(req.Username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must contain only letters and digits"})
			return
		}
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-64 characters"})
			return
		}
		role := req.Role
		if role == "" {
			role = domain.RoleCustomer // Default role
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		// Lowercase username to ensure uniqueness
		user := domain.User{
			Username: strings.ToLower(req.Username),
			Email:    strings.ToLower(req.Email),
			Password: string(hash),
			Role:     role,
		}
		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&domain.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return gorm.ErrDuplicatedKey // Taken
			}
			return tx.Create(&user).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
			return
		}
		if err != nil {
			respondError(c, err, "register")
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // New user
			"username": user.Username, // Username
			"role":     user.Role,     // Role
		}).Info("User registered")
		if mail != nil && user.Email != "" {
			mail.Enqueue(mailer.WelcomeMessage(user.Email, user.Username)) // Sent after commit
		}
		c.JSON(http.StatusCreated, newUserView(&user))
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = utils.DefaultTokenTTL
	}
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		user, err := authenticate(c, db, req.Username, req.Password)
		if errors.Is(err, domain.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err != nil {
			respondError(c, err, "login")
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Username, jwtSecret, ttl)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, ExpiresIn: int64(ttl / time.Second)})
	}
}

// authenticate returns the user whose password matches; unknown users and wrong passwords are domain.ErrUnauthorized
func authenticate(c *gin.Context, db *gorm.DB, username, password string) (*domain.User, error) {
	var user domain.User // Fetch user from database
	err := db.WithContext(c.Request.Context()).Where("username = ?", strings.ToLower(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return &user, nil
}

// MeHandler returns the authenticated user's profile
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, newUserView(middleware.CurrentUser(c)))
	}
}
