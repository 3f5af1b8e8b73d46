package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/smartcart/internal/models"
)

// HistoryHandler serves the shopping-history listing.
type HistoryHandler struct {
	db *gorm.DB
}

// NewHistoryHandler constructs HistoryHandler.
func NewHistoryHandler(db *gorm.DB) *HistoryHandler {
	return &HistoryHandler{db: db}
}

// ListShoppingHistory returns every order record. The route carries no
// auth; the storefront history page calls it without a session.
func (h *HistoryHandler) ListShoppingHistory(c *fiber.Ctx) error {
	var records []models.ShoppingHistory
	if err := h.db.Find(&records).Error; err != nil {
		return err
	}

	return c.JSON(records)
}
