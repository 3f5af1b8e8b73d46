package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/smartcart/internal/config"
	"github.com/example/smartcart/internal/models"
	"github.com/example/smartcart/internal/services"
	"github.com/example/smartcart/internal/utils"
)

// PasswordResetHandler manages forgot-password endpoints.
type PasswordResetHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer services.EmailSender
}

// NewPasswordResetHandler constructs a PasswordResetHandler.
func NewPasswordResetHandler(db *gorm.DB, cfg *config.Config, mailer services.EmailSender) *PasswordResetHandler {
	return &PasswordResetHandler{db: db, cfg: cfg, mailer: mailer}
}

// ForgotPassword initiates the password-reset flow. The response never
// reveals whether the email exists; a token is generated and mailed only
// when it does.
func (h *PasswordResetHandler) ForgotPassword(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.JSON(fiber.Map{
				"success": true,
				"message": "If email exists, password reset instructions have been sent",
			})
		}
		return err
	}

	resetToken, err := utils.GenerateResetToken()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	record := models.ResetToken{
		UserID:    user.ID,
		Token:     resetToken,
		ExpiresAt: time.Now().Add(config.ResetTokenTTL),
	}
	if err := h.db.Create(&record).Error; err != nil {
		return err
	}

	body := fmt.Sprintf(`Password Reset Request

Your password reset token: %s

This token will expire in %d hour(s).

Use this token with the reset-password API endpoint.

If you didn't request this, please ignore this email.`, resetToken, int(config.ResetTokenTTL.Hours()))

	// A failed send is not surfaced here; the generic response must stay
	// identical for existing and unknown emails.
	_ = h.mailer.Send(user.Email, "Password Reset Request", body)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password reset instructions sent to your email",
	})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword consumes a reset token and stores the new password hash.
func (h *PasswordResetHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid reset token")
		}
		return err
	}

	var record models.ResetToken
	err := h.db.Where("user_id = ? AND token = ?", user.ID, req.ResetToken).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid reset token")
		}
		return err
	}

	if time.Now().After(record.ExpiresAt) {
		return fiber.NewError(fiber.StatusBadRequest, "Reset token has expired")
	}

	if record.Used {
		return fiber.NewError(fiber.StatusBadRequest, "Reset token already used")
	}

	// Hash before consuming: a hashing failure must leave the token usable
	// for a retry.
	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	// The conditional update keeps a concurrent reset with the same token
	// from succeeding twice.
	now := time.Now()
	res := h.db.Model(&models.ResetToken{}).
		Where("id = ? AND used = ?", record.ID, false).
		Updates(map[string]interface{}{"used": true, "used_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Reset token already used")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password reset successful",
	})
}
