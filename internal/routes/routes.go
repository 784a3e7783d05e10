package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/KanishkRAJ29/capstonebackned/internal/auth"
	"github.com/KanishkRAJ29/capstonebackned/internal/config"
	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
	"github.com/KanishkRAJ29/capstonebackned/internal/middleware"
	"github.com/KanishkRAJ29/capstonebackned/internal/notification"
	"github.com/KanishkRAJ29/capstonebackned/internal/payments"
	"github.com/KanishkRAJ29/capstonebackned/internal/realtime"
	"github.com/KanishkRAJ29/capstonebackned/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Hub    *realtime.Hub
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
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
	app.Use(middleware.Audit(d.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.Cfg.FrontendURL,
		AllowMethods:     "GET,HEAD,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowCredentials: true,
	}))
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)

	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	tokens := auth.NewTokens(d.Cfg.JWTSecret, d.Cfg.TokenTTL)

	var notifier notification.Notifier
	if d.Hub != nil {
		notifier = notification.NewRealtimeNotifier(d.Hub)
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	walletSvc := wallet.NewService(identitySvc, ledgerBackend)
	paymentSvc := payments.NewService(ledgerBackend, identitySvc, notifier)

	authHandler := auth.NewHandler(identitySvc, tokens, ledgerBackend)
	walletHandler := wallet.NewHandler(walletSvc)
	paymentHandler := payments.NewHandler(paymentSvc)

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
	RegisterUserRoutes(api, identitySvc)

	// Protected routes
	jwtmw := middleware.JWTAuth(tokens, identityRepo)
	protected := api.Group("", jwtmw)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/pin", authHandler.SetPin)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterPaymentRoutes(protected, paymentHandler, d)
	RegisterAdminRoutes(protected, identitySvc, ledgerBackend)

	// Realtime
	if d.Hub != nil {
		gateway := realtime.NewGateway(d.Logger, d.Hub, tokens.Verify)
		app.Use("/ws", realtime.Upgrade)
		app.Get("/ws", gateway.Handler())
	}

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
