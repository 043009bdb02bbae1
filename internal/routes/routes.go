package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/storeit/storeit/internal/account"
	"github.com/storeit/storeit/internal/auth"
	"github.com/storeit/storeit/internal/config"
	"github.com/storeit/storeit/internal/middleware"
	"github.com/storeit/storeit/internal/notification"
	"github.com/storeit/storeit/internal/otp"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Notifier overrides the configured OTP delivery. Tests use it to read codes.
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Services and handlers
	var accountRepo account.Repository
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
	}

	var otpStore otp.Store
	if d.Cache != nil {
		otpStore = otp.NewRedisStore(d.Cache)
	} else {
		otpStore = otp.NewMemoryStore()
	}

	notifier := d.Notifier
	if notifier == nil {
		notifier = newNotifier(d.Cfg, d.Logger)
	}

	passcodes := otp.NewService(otpStore, notifier, d.Cfg.OTPTTL, d.Logger)
	accountSvc := account.NewService(accountRepo, passcodes, d.Logger)
	sessions := auth.NewService(d.Cfg.SessionSecret, d.Cfg.SessionTTL)
	secureCookie := !d.Cfg.IsDev()
	rateLimiter := middleware.SignInRateLimit(d.Cache, d.Cfg.SignInRatePerMin)

	// Pages
	RegisterPageRoutes(app, accountSvc, sessions, secureCookie, d.Cache, d.Cfg.SignInRatePerMin)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDHeader).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	authHandler := auth.NewHandler(accountSvc, sessions, secureCookie)
	RegisterAuthRoutes(api, authHandler, rateLimiter, middleware.RequireSession(sessions, ""))
	RegisterFileRoutes(api)

	return nil
}

func newNotifier(cfg config.Config, log *slog.Logger) notification.Notifier {
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST not set, OTP codes are written to the log")
		return notification.NewLoggerNotifier(log)
	}
	return notification.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
}
