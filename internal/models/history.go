package models

import (
	"time"

	"github.com/google/uuid"
)

// ShoppingHistory is a completed order record kept for the storefront's
// history page.
type ShoppingHistory struct {
	BaseModel
	UserID          uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	User            *User      `json:"user,omitempty"`
	ProductName     string     `json:"product_name"`
	Category        string     `json:"category"`
	Quantity        int        `json:"quantity"`
	PricePerUnit    float64    `json:"price_per_unit"`
	TotalPrice      float64    `json:"total_price"`
	PaymentMethod   string     `json:"payment_method"`
	Status          string     `json:"status"`
	DeliveryAddress string     `json:"delivery_address"`
	DeliveryDate    *time.Time `json:"delivery_date"`
}

// TableName keeps the singular table name used by earlier deployments.
func (ShoppingHistory) TableName() string {
	return "shopping_history"
}
