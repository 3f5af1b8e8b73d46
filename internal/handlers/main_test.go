package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/smartcart/internal/config"
	"github.com/example/smartcart/internal/database"
	"github.com/example/smartcart/internal/models"
	"github.com/example/smartcart/internal/routes"
	"github.com/example/smartcart/internal/utils"
)

const testSecret = "test-secret"

type sentEmail struct {
	to      string
	subject string
	body    string
}

type mockMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	fail bool
}

func (m *mockMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("relay unavailable")
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func (m *mockMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *mockMailer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	// A fresh connection would see an empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{JWTSecret: testSecret}
	mailer := &mockMailer{}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(fiber.Map{"success": false, "detail": err.Error()})
		},
	})
	routes.Register(app, db, cfg, mailer)

	return app, db, mailer
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response from %s: %v", path, err)
	}

	return resp.StatusCode, decoded
}

func getJSON(t *testing.T, app *fiber.App, path, token string) (int, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response from %s: %v", path, err)
	}

	return resp.StatusCode, decoded
}

func createUser(t *testing.T, db *gorm.DB, email, password string, verified, active bool) models.User {
	t.Helper()

	var passwordHash string
	if password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			t.Fatalf("hash password: %v", err)
		}
		passwordHash = hash
	}

	user := models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     "Test User",
		IsVerified:   verified,
		IsActive:     active,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func latestCode(t *testing.T, db *gorm.DB, userID uuid.UUID, purpose string) models.OneTimeCode {
	t.Helper()

	var otp models.OneTimeCode
	err := db.Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		t.Fatalf("load latest %s code: %v", purpose, err)
	}
	return otp
}

func seedCode(t *testing.T, db *gorm.DB, userID uuid.UUID, code, purpose string, expiresAt time.Time) models.OneTimeCode {
	t.Helper()

	otp := models.OneTimeCode{
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(&otp).Error; err != nil {
		t.Fatalf("seed code: %v", err)
	}
	return otp
}
