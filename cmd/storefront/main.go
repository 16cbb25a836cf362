package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/storefront-checkout/api/handlers"
	"github.com/angelmondragon/storefront-checkout/api/routes"
	"github.com/angelmondragon/storefront-checkout/internal/address"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	"github.com/angelmondragon/storefront-checkout/internal/checkout"
	"github.com/angelmondragon/storefront-checkout/internal/ledger"
	"github.com/angelmondragon/storefront-checkout/internal/notifications"
	"github.com/angelmondragon/storefront-checkout/internal/paymentmethods"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/internal/vouchers"
	"github.com/angelmondragon/storefront-checkout/internal/wishlist"
	"github.com/angelmondragon/storefront-checkout/pkg/config"
	"github.com/angelmondragon/storefront-checkout/pkg/db"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/metrics"
	"github.com/angelmondragon/storefront-checkout/pkg/migrate"
	"github.com/angelmondragon/storefront-checkout/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const shutdownTimeout = 5 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront", Output: os.Stderr})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "storefront stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	ctx = logg.WithUserID(ctx, cfg.App.UserID)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.AutoRun(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	notifier := notifications.Safe(notifications.Fanout(
		notifications.Writer(os.Stdout),
		notifications.Log(logg),
	), logg)

	store := cart.NewStore(logg)
	store.Subscribe(func(_ context.Context, event cart.Event) {
		checkoutMetrics.IncCartMutation(string(event.Kind))
	})
	store.Subscribe(notifications.CartObserver(notifier))

	checks := map[string]handlers.Pinger{"database": dbClient}
	if cfg.Redis.Enabled {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return fmt.Errorf("bootstrap redis: %w", redisErr)
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		checks["redis"] = redisClient

		snapshots, snapErr := cart.NewSnapshotStore(redisClient, cfg.Redis.CartTTL, logg)
		if snapErr != nil {
			return snapErr
		}
		snapshots.RestoreInto(ctx, cfg.App.UserID, store)
		store.Subscribe(snapshots.PersistOnChange(cfg.App.UserID))
	}

	book, err := address.NewBook(address.NewRepository(dbClient.DB()), dbClient, cfg.App.UserID)
	if err != nil {
		return err
	}
	likes, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:   wishlist.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Cart:   store,
		UserID: cfg.App.UserID,
		Logger: logg,
	})
	if err != nil {
		return err
	}
	orderLedger, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	voucherRegistry, err := vouchers.ParseSpecs(cfg.Vouchers.Specs)
	if err != nil {
		return fmt.Errorf("parse vouchers: %w", err)
	}
	authorizer := paymentmethods.NewOfflineAuthorizer(logg)
	policies := pricing.PoliciesFromConfig(cfg.Pricing)

	catalogClient := catalog.NewClient(logg,
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithTimeout(cfg.Catalog.HTTPTimeout()),
	)

	var opsServer *http.Server
	if cfg.Metrics.Enabled() {
		opsServer = &http.Server{
			Addr: cfg.Metrics.Addr,
			Handler: routes.NewRouter(routes.Deps{
				Env:      cfg.App.Env,
				Logger:   logg,
				Checks:   checks,
				Gatherer: registry,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			opsCtx := logg.WithField(ctx, "addr", cfg.Metrics.Addr)
			logg.Info(opsCtx, "starting ops server")
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(opsCtx, "ops server stopped unexpectedly", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = multierr.Append(err, opsServer.Shutdown(shutdownCtx))
		}()
	}

	sh := &shell{
		out:       os.Stdout,
		logg:      logg,
		catalog:   catalogClient,
		category:  cfg.Catalog.Category,
		cart:      store,
		addresses: book,
		wishlist:  likes,
		orders:    orderLedger,
		newSession: func(ctx context.Context) (*checkout.Session, error) {
			return checkout.NewSession(ctx, checkout.Params{
				Cart:       store,
				Addresses:  book,
				Ledger:     orderLedger,
				Authorizer: authorizer,
				Vouchers:   voucherRegistry,
				Policies:   policies,
				Notifier:   notifier,
				Metrics:    checkoutMetrics,
				Logger:     logg,
			})
		},
	}

	logg.Info(ctx, "storefront ready")
	fmt.Fprintln(os.Stdout, "storefront ready; type help for commands")

	// Scan blocks on stdin, so a signal must not wait for the next line.
	done := make(chan error, 1)
	go func() { done <- sh.run(ctx, os.Stdin) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		return nil
	}
}
