package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/smartcart/internal/config"
	"github.com/example/smartcart/internal/models"
	"github.com/example/smartcart/internal/services"
	"github.com/example/smartcart/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	mailer services.EmailSender
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, mailer services.EmailSender) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, mailer: mailer}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Signup creates (or refreshes) an unverified account and emails a signup
// OTP. The account stays inactive until the code is verified.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	var user models.User
	err := h.db.Where("email = ?", req.Email).First(&user).Error
	switch {
	case err == nil:
		if user.IsVerified {
			return fiber.NewError(fiber.StatusBadRequest, "Email already registered and verified")
		}
		// Unverified re-signup reuses the row instead of creating a duplicate.
		passwordHash, hashErr := utils.HashPassword(req.Password)
		if hashErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
		}
		user.PasswordHash = passwordHash
		user.FullName = req.FullName
		if err := h.db.Save(&user).Error; err != nil {
			return err
		}
	case err == gorm.ErrRecordNotFound:
		passwordHash, hashErr := utils.HashPassword(req.Password)
		if hashErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
		}
		user = models.User{
			Email:        req.Email,
			PasswordHash: passwordHash,
			FullName:     req.FullName,
			IsActive:     false,
			IsVerified:   false,
		}
		if err := h.db.Create(&user).Error; err != nil {
			return err
		}
	default:
		return err
	}

	code, err := h.issueOTP(user.ID, models.OTPPurposeSignup)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`Welcome to Our Platform!

Your verification code is: %s

This code will expire in %d minutes.

Please verify your email to complete registration.

If you didn't create this account, please ignore this email.`, code, int(config.OTPTTL.Minutes()))

	if err := h.mailer.Send(user.Email, "Verify Your Email - OTP Code", body); err != nil {
		// The user and OTP rows stay persisted; a resend recovers from here.
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to send verification email. Please try again.")
	}

	return c.JSON(fiber.Map{
		"success":               true,
		"message":               fmt.Sprintf("Verification code sent to %s. Please check your email.", user.Email),
		"email":                 user.Email,
		"requires_verification": true,
	})
}

type verifySignupRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifySignup checks the latest signup OTP and activates the account.
func (h *AuthHandler) VerifySignup(c *fiber.Ctx) error {
	var req verifySignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return err
	}

	if user.IsVerified {
		return fiber.NewError(fiber.StatusBadRequest, "Email already verified. Please login.")
	}

	otp, err := h.latestOTP(user.ID, models.OTPPurposeSignup)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "No verification code found. Please request a new one.")
		}
		return err
	}

	if time.Now().After(otp.ExpiresAt) {
		return fiber.NewError(fiber.StatusBadRequest, "Verification code expired. Please request a new one.")
	}

	if otp.Consumed {
		return fiber.NewError(fiber.StatusBadRequest, "Code already used. Please request a new one.")
	}

	if otp.Code != req.OTP {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid verification code")
	}

	if err := h.consumeOTP(otp.ID); err != nil {
		if err == errAlreadyConsumed {
			return fiber.NewError(fiber.StatusBadRequest, "Code already used. Please request a new one.")
		}
		return err
	}

	now := time.Now()
	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"is_verified": true,
		"is_active":   true,
		"last_login":  now,
	}).Error; err != nil {
		return err
	}

	accessToken, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Email, config.AccessTokenTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Email verified successfully! Registration complete.",
		"access_token": accessToken,
		"user": fiber.Map{
			"id":          user.ID,
			"email":       user.Email,
			"full_name":   user.FullName,
			"is_verified": true,
		},
	})
}

type emailRequest struct {
	Email string `json:"email"`
}

// ResendVerification issues a fresh signup OTP for unverified accounts.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return err
	}

	if user.IsVerified {
		return fiber.NewError(fiber.StatusBadRequest, "Email already verified. Please login.")
	}

	code, err := h.issueOTP(user.ID, models.OTPPurposeSignup)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`Your new verification code is: %s

This code will expire in %d minutes.

If you didn't request this, please ignore this email.`, code, int(config.OTPTTL.Minutes()))

	if err := h.mailer.Send(user.Email, "New Verification Code", body); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to send email")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "New verification code sent to your email",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a verified user by email and password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}
		return err
	}

	// Accounts created through passwordless flows carry no hash; treat them
	// the same as a wrong password.
	if user.PasswordHash == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	}

	if !user.IsVerified {
		return fiber.NewError(fiber.StatusForbidden, "Email not verified. Please verify your email first.")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	}

	if !user.IsActive {
		return fiber.NewError(fiber.StatusUnauthorized, "Account is deactivated")
	}

	now := time.Now()
	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now).Error; err != nil {
		return err
	}

	accessToken, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Email, config.AccessTokenTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Login successful",
		"access_token": accessToken,
		"user": fiber.Map{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
		},
	})
}

// SendOtp emails a login OTP for passwordless authentication.
func (h *AuthHandler) SendOtp(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "User not found. Please signup first.")
		}
		return err
	}

	if !user.IsVerified {
		return fiber.NewError(fiber.StatusForbidden, "Email not verified. Please complete signup verification first.")
	}

	code, err := h.issueOTP(user.ID, models.OTPPurposeLogin)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`Your login OTP code is: %s

This code will expire in %d minutes.

If you didn't request this, please ignore this email.`, code, int(config.OTPTTL.Minutes()))

	if err := h.mailer.Send(user.Email, "Your Login OTP Code", body); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to send OTP")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent successfully to your email",
	})
}

type verifyOtpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyOtp checks the latest login OTP and issues an access token. Unlike
// signup verification it never touches the verified or active flags.
func (h *AuthHandler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyOtpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return err
	}

	if !user.IsVerified {
		return fiber.NewError(fiber.StatusForbidden, "Email not verified")
	}

	otp, err := h.latestOTP(user.ID, models.OTPPurposeLogin)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "No OTP found. Please request a new OTP")
		}
		return err
	}

	if time.Now().After(otp.ExpiresAt) {
		return fiber.NewError(fiber.StatusBadRequest, "OTP expired. Please request a new OTP")
	}

	if otp.Consumed {
		return fiber.NewError(fiber.StatusBadRequest, "OTP already used. Please request a new OTP")
	}

	if otp.Code != req.OTP {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid OTP")
	}

	if err := h.consumeOTP(otp.ID); err != nil {
		if err == errAlreadyConsumed {
			return fiber.NewError(fiber.StatusBadRequest, "OTP already used. Please request a new OTP")
		}
		return err
	}

	now := time.Now()
	if err := h.db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_login", now).Error; err != nil {
		return err
	}

	accessToken, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Email, config.AccessTokenTTL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Login successful",
		"access_token": accessToken,
		"user": fiber.Map{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
		},
	})
}

var errAlreadyConsumed = fmt.Errorf("code already consumed")

// issueOTP persists a fresh code for the user. Rows are append-only; older
// codes become dead because only the newest row is read back.
func (h *AuthHandler) issueOTP(userID uuid.UUID, purpose string) (string, error) {
	code, err := utils.GenerateOTP()
	if err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "failed to generate verification code")
	}

	otp := models.OneTimeCode{
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(config.OTPTTL),
	}

	if err := h.db.Create(&otp).Error; err != nil {
		return "", err
	}

	return code, nil
}

func (h *AuthHandler) latestOTP(userID uuid.UUID, purpose string) (models.OneTimeCode, error) {
	var otp models.OneTimeCode
	err := h.db.Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at desc").
		First(&otp).Error
	return otp, err
}

// consumeOTP flips the consumed flag with a single conditional update so
// that two concurrent verifications cannot both succeed on the same row.
func (h *AuthHandler) consumeOTP(otpID uuid.UUID) error {
	now := time.Now()
	res := h.db.Model(&models.OneTimeCode{}).
		Where("id = ? AND consumed = ?", otpID, false).
		Updates(map[string]interface{}{"consumed": true, "consumed_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errAlreadyConsumed
	}
	return nil
}
