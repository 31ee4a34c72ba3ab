// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"membership-billing/internal/config"
	"membership-billing/internal/domain/model"
	"membership-billing/internal/domain/ports/adapter"
	"membership-billing/internal/infra/adapters/mail"
	payAdapters "membership-billing/internal/infra/adapters/payment"
	"membership-billing/internal/infra/api"
	pg "membership-billing/internal/infra/db/postgres"
	"membership-billing/internal/infra/logging"
	"membership-billing/internal/infra/metrics"
	red "membership-billing/internal/infra/redis"
	"membership-billing/internal/infra/sched"
	"membership-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway/mailer fallbacks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	subRepo := pg.NewSubscriptionRepo(pool)
	ledgerRepo := pg.NewTransactionRepo(pool)
	tierRepo := pg.NewTierRepoCacheDecorator(pg.NewTierRepo(pool), redisClient, cfg.Redis.TTL)

	// ---- Gateways ----
	gateways := map[model.Gateway]adapter.PaymentGateway{}
	if cfg.Payment.Stripe.SecretKey != "" {
		sg, err := payAdapters.NewStripeGateway(cfg.Payment.Stripe.SecretKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
		gateways[model.GatewayStripe] = sg
		logger.Info().Msg("stripe gateway configured")
	}
	if cfg.Payment.Telr.StoreID != "" {
		tg, err := payAdapters.NewTelrGateway(cfg.Payment.Telr.StoreID, cfg.Payment.Telr.AuthKey, cfg.Payment.Telr.PaymentURL, cfg.Server.PublicBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("telr gateway")
		}
		gateways[model.GatewayTelr] = tg
		logger.Info().Msg("telr gateway configured")
	}
	if len(gateways) == 0 {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("no payment gateway configured")
		}
		logger.Warn().Msg("no gateway configured, dev noop gateway active for stripe and telr")
		noop := payAdapters.NewNoopGateway()
		gateways[model.GatewayStripe] = noop
		gateways[model.GatewayTelr] = noop
	}

	// ---- Confirmation sender ----
	var sender adapter.ConfirmationSender
	if cfg.Mail.Host != "" {
		sender, err = mail.NewSMTPSender(cfg.Mail, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("smtp sender")
		}
	} else {
		logger.Warn().Msg("mail.host not set, confirmations are logged only")
		sender = mail.NewNoopSender(logger)
	}

	// ---- Use cases ----
	pricingUC := usecase.NewPricingUseCase(tierRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(subRepo, ledgerRepo, pricingUC, gateways, sender, logger)
	notifUC := usecase.NewNotificationUseCase(subRepo, sender, logger)
	statsUC := usecase.NewStatsUseCase(subRepo, logger)

	// ---- HTTP server ----
	auth := api.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	srv := api.NewServer(paymentUC, pricingUC, statsUC, gateways, rateLimiter, cfg.RateLimit.InitiatePerMinute, auth, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Background workers ----
	reaper := sched.NewPendingReaper(cfg.Sched.ReapInterval, cfg.Sched.PendingTTL, paymentUC, logger)
	go func() { _ = reaper.Run(ctx) }()
	sweep := sched.NewConfirmationSweep(cfg.Sched.ConfirmationInterval, notifUC, logger)
	go func() { _ = sweep.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
