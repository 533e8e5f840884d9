package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	_ "github.com/tbourn/go-receptionist-backend/docs"
	httpapi "github.com/tbourn/go-receptionist-backend/internal/http"
	"github.com/tbourn/go-receptionist-backend/internal/observability"
	"github.com/tbourn/go-receptionist-backend/internal/payments"
	"github.com/tbourn/go-receptionist-backend/internal/repo"
	"github.com/tbourn/go-receptionist-backend/internal/telephony"
	"github.com/tbourn/go-receptionist-backend/internal/vapi"
)

const shutdownGrace = 15 * time.Second

var serveSkipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and webhook server",
	Long: `Run the HTTP API and webhook server.

The schema is migrated on start unless --skip-migrate is given. SIGINT and
SIGTERM drain in-flight requests before exiting.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSkipMigrate, "skip-migrate", false, "do not migrate the schema on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(cfg.OTEL.Enabled)
	if err != nil {
		return err
	}
	if !serveSkipMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	deps := httpapi.Deps{DB: db}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		perr := rdb.Ping(pctx).Err()
		cancel()
		if perr != nil {
			// the limiter fails open, so a cold Redis is not fatal
			log.Warn().Err(perr).Msg("redis ping failed; rate limiting will fail open until it recovers")
		}
		deps.Redis = rdb
	}

	voice := vapi.NewClient(cfg.Vapi.BaseURL, cfg.Vapi.APIKey, cfg.Vapi.Timeout)
	deps.Assistants = voice
	deps.Importer = voice
	deps.Numbers = telephony.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.Country)

	stripeGw := payments.NewStripeGateway(cfg.Billing.SecretKey, cfg.Billing.WebhookSecret, payments.Plan{
		Currency:    cfg.Billing.Currency,
		UnitAmount:  cfg.Billing.UnitAmount,
		Interval:    cfg.Billing.Interval,
		ProductName: cfg.Billing.ProductName,
		BaseURL:     cfg.Billing.PublicBaseURL,
	})
	deps.Checkout = stripeGw
	deps.Stripe = stripeGw

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db", cfg.DB.Driver).Bool("redis", deps.Redis != nil).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
