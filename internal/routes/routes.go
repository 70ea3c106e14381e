package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/loopmarket/loopmarket/internal/classifieds"
	"github.com/loopmarket/loopmarket/internal/config"
	"github.com/loopmarket/loopmarket/internal/identity"
	"github.com/loopmarket/loopmarket/internal/ledger"
	"github.com/loopmarket/loopmarket/internal/middleware"
	"github.com/loopmarket/loopmarket/internal/notification"
	"github.com/loopmarket/loopmarket/internal/transfer"
	"github.com/loopmarket/loopmarket/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Auth   identity.Authenticator
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
	} else {
		store = ledger.NewMemoryStore()
	}
	var adStore classifieds.Store
	if d.DB != nil {
		adStore = classifieds.NewPostgresStore(d.DB)
	} else {
		adStore = classifieds.NewMemoryStore()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	engine := transfer.NewEngine(store, notifier, d.Logger)
	walletSvc := wallet.NewService(store, engine, wallet.Options{
		Policy: wallet.FeePolicy{
			Fee:             d.Cfg.PostingFee,
			PlatformOwnerID: d.Cfg.PlatformOwnerID,
		},
		SeedBalance:  d.Cfg.SeedBalance,
		Currency:     d.Cfg.Currency,
		BaseCurrency: d.Cfg.BaseCurrency,
		ExchangeRate: d.Cfg.ExchangeRate,
	}, notifier, d.Logger)
	if err := walletSvc.EnsurePlatformWallet(context.Background()); err != nil {
		return fmt.Errorf("ensure platform wallet: %w", err)
	}

	adSvc := classifieds.NewService(adStore, walletSvc,
		classifieds.NewStaticIssuer("https://media.loopmarket.local"), d.Logger)

	walletHandler := wallet.NewHandler(walletSvc)
	adHandler := classifieds.NewHandler(adSvc)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("", middleware.OwnerAuth(d.Auth))
	RegisterWalletRoutes(protected, walletHandler, middleware.TopUpRateLimit(d.Cache, d.Cfg.TopUpsPerMinute))
	RegisterClassifiedRoutes(protected, adHandler)

	return nil
}
