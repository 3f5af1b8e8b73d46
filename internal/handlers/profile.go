package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/smartcart/internal/middleware"
	"github.com/example/smartcart/internal/models"
)

// ProfileHandler manages authenticated user endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the stored profile of the authenticated user.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	claims, ok := middleware.GetAuthClaims(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"id":          user.ID,
		"email":       user.Email,
		"full_name":   user.FullName,
		"is_active":   user.IsActive,
		"is_verified": user.IsVerified,
		"created_at":  user.CreatedAt,
		"last_login":  user.LastLogin,
	})
}

// VerifyToken echoes the claims of the presented access token. The
// middleware has already rejected anything invalid or expired.
func (h *ProfileHandler) VerifyToken(c *fiber.Ctx) error {
	claims, ok := middleware.GetAuthClaims(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token is valid",
		"user_id": claims.UserID,
		"email":   claims.Email,
	})
}
