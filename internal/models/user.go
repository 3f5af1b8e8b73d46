package models

import (
	"time"

	"github.com/google/uuid"
)

// OneTimeCode purposes. Signup codes verify a fresh account, login codes
// authenticate an already verified one.
const (
	OTPPurposeSignup = "signup"
	OTPPurposeLogin  = "login"
)

// User represents an account identified by a unique email address.
type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex" json:"email"`
	PasswordHash string     `json:"-"`
	FullName     string     `json:"full_name"`
	IsActive     bool       `json:"is_active"`
	IsVerified   bool       `json:"is_verified"`
	LastLogin    *time.Time `json:"last_login"`
}

// OneTimeCode keeps track of OTP codes emailed to users. Rows are
// append-only; the newest row of a given purpose is the authoritative one.
type OneTimeCode struct {
	BaseModel
	UserID     uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Code       string     `json:"code"`
	Purpose    string     `gorm:"index" json:"purpose"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Consumed   bool       `json:"consumed"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

// ResetToken is a single-use credential authorizing one password change.
type ResetToken struct {
	BaseModel
	UserID    uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Token     string     `gorm:"uniqueIndex" json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at"`
}
