package main

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/smartcart/internal/config"
	"github.com/example/smartcart/internal/database"
	"github.com/example/smartcart/internal/routes"
	"github.com/example/smartcart/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName:      "Authentication API",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	mailer := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	routes.Register(app, db, cfg, mailer)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}

// errorHandler renders every error as {"success":false,"detail":...}, the
// shape the storefront client expects.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"detail":  err.Error(),
	})
}
