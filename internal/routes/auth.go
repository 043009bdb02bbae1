package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/storeit/storeit/internal/auth"
)

// RegisterAuthRoutes wires the JSON authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, session fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/sign-up", rateLimiter, h.SignUp)
	group.Post("/sign-in", rateLimiter, h.SignIn)
	group.Post("/otp/verify", h.VerifyOTP)
	group.Post("/otp/resend", rateLimiter, h.ResendOTP)
	group.Post("/sign-out", h.SignOut)

	r.Get("/me", session, h.Me)
}
