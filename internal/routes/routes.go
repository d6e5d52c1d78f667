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

	"github.com/moyobank/moyobank/internal/account"
	"github.com/moyobank/moyobank/internal/auth"
	"github.com/moyobank/moyobank/internal/config"
	"github.com/moyobank/moyobank/internal/middleware"
	"github.com/moyobank/moyobank/internal/token"
	"github.com/moyobank/moyobank/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes. Accounts
// overrides the storage backend when set; otherwise Postgres is used when
// DB is present and the in-memory store in dev.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Accounts account.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce backing-store presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil && d.Accounts == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Storage backend
	accounts := d.Accounts
	if accounts == nil {
		if d.DB != nil {
			accounts = account.NewPostgresRepository(d.DB)
		} else {
			accounts = account.NewMemoryRepository()
		}
	}

	// Services and handlers
	tokens := token.NewManager([]byte(d.Cfg.JWTSecret), d.Cfg.AccessTokenTTL)
	guard := auth.NewService(accounts, tokens)
	accountSvc := account.NewService(accounts)
	transferSvc := transfer.NewService(accounts, d.Cfg.AllowSelfTransfer)

	authHandler := auth.NewHandler(guard)
	accountHandler := account.NewHandler(accountSvc)
	transferHandler := transfer.NewHandler(transferSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes: every account and transfer operation resolves the
	// caller through the bearer gate first.
	protected := api.Group("", middleware.BearerAuth(guard))
	protected.Get("/me", func(c *fiber.Ctx) error {
		caller, ok := middleware.Caller(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, auth.ErrUnauthorized.Error())
		}
		return c.Status(http.StatusOK).JSON(account.NewResponse(caller))
	})
	RegisterAccountRoutes(protected, accountHandler, transferHandler)

	return nil
}
