package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/smartcart/internal/config"
	"github.com/example/smartcart/internal/handlers"
	"github.com/example/smartcart/internal/middleware"
	"github.com/example/smartcart/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, mailer services.EmailSender) {
	authHandler := handlers.NewAuthHandler(db, cfg, mailer)
	resetHandler := handlers.NewPasswordResetHandler(db, cfg, mailer)
	profileHandler := handlers.NewProfileHandler(db)
	historyHandler := handlers.NewHistoryHandler(db)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Authentication API with Email Verification",
			"version": "2.0.0",
		})
	})
	app.Get("/shopping-history", historyHandler.ListShoppingHistory)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/verify-signup", authHandler.VerifySignup)
	auth.Post("/resend-verification", authHandler.ResendVerification)
	auth.Post("/login", authHandler.Login)
	auth.Post("/send-otp", authHandler.SendOtp)
	auth.Post("/verify-otp", authHandler.VerifyOtp)
	auth.Post("/forgot-password", resetHandler.ForgotPassword)
	auth.Post("/reset-password", resetHandler.ResetPassword)

	user := api.Group("/user", middleware.AuthMiddleware(cfg))
	user.Get("/profile", profileHandler.GetProfile)
	user.Get("/verify-token", profileHandler.VerifyToken)
}
