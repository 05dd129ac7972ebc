package api

import (
	"net/http"
	"strings"

	"shopfront/internal/domain"
	"shopfront/internal/mailer"
	"shopfront/internal/otp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PasswordResetRequest is the body of POST /password-reset/request
type PasswordResetRequest struct {
	Username string `json:"username" binding:"required"`
}

// PasswordResetConfirm is the body of POST /password-reset/confirm
type PasswordResetConfirm struct {
	Username    string `json:"username" binding:"required"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required"`
}

const resetRequestedMessage = "If the account exists, a reset code has been sent"

// RequestPasswordResetHandler emails a one-time code. The response is the same whether or not the user exists.
func RequestPasswordResetHandler(db *gorm.DB, codes OTPStore, mail MailQueue) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		ctx := c.Request.Context()
		username := strings.ToLower(req.Username)

		var user domain.User
		if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
			return
		}
		code, err := codes.Issue(ctx, user.Username)
		if err != nil {
			respondError(c, err, "issue reset code")
			return
		}
		if user.Email != "" && mail != nil {
			mail.Enqueue(mailer.PasswordResetMessage(user.Email, user.Username, code, codes.TTL()))
		}
		logrus.WithField("user_id", user.ID).Info("Password reset requested")
		c.JSON(http.StatusOK, gin.H{"message": resetRequestedMessage})
	}
}

// ConfirmPasswordResetHandler replaces the password when the code is valid
func ConfirmPasswordResetHandler(db *gorm.DB, codes OTPStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordResetConfirm
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if !isValidPassword(req.NewPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-64 characters"})
			return
		}
		ctx := c.Request.Context()
		username := strings.ToLower(req.Username)

		result, err := codes.Verify(ctx, username, req.Code)
		if err != nil {
			respondError(c, err, "verify reset code")
			return
		}
		switch result {
		case otp.Expired:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Reset code has expired"})
			return
		case otp.Invalid:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset code"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		res := db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Update("password", string(hash))
		if res.Error != nil {
			respondError(c, res.Error, "reset password")
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reset code"})
			return
		}
		if err := codes.Clear(ctx, username); err != nil {
			logrus.WithFields(logrus.Fields{"username": username, "error": err.Error()}).Warn("Failed to clear reset code")
		}
		logrus.WithField("username", username).Info("Password reset")
		c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
	}
}
