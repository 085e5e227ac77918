package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sodai-platform/internal/config"
	"sodai-platform/internal/domain/ports/adapter"
	pg "sodai-platform/internal/infra/db/postgres"
	"sodai-platform/internal/infra/logging"
	"sodai-platform/internal/infra/media"
	"sodai-platform/internal/infra/metrics"
	payAdapters "sodai-platform/internal/infra/payment"
	red "sodai-platform/internal/infra/redis"
	"sodai-platform/internal/infra/sched"
	"sodai-platform/internal/infra/web"
	"sodai-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)
	balanceEvents := red.NewBalanceEvents(redisClient)

	// ---- Repositories ----
	accountRepo := pg.NewAccountRepo(pool)
	txRepo := pg.NewTransactionRepo(pool)
	sessionRepo := pg.NewPaymentSessionRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	ledgerUC := usecase.NewLedgerUseCase(accountRepo, txRepo, txManager, balanceEvents, log)
	accountUC := usecase.NewAccountUseCase(accountRepo, ledgerUC, log)

	gateway, err := payAdapters.NewIyzicoGateway(
		cfg.Payment.Iyzico.APIKey,
		cfg.Payment.Iyzico.SecretKey,
		cfg.Payment.Iyzico.BaseURL,
		cfg.Payment.Iyzico.CallbackURL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("iyzico gateway init failed")
	}
	paymentUC := usecase.NewPaymentUseCase(sessionRepo, ledgerUC, gateway, locker, log)

	// ---- Media adapters ----
	var copywriter adapter.Copywriter
	var video adapter.VideoGenerator
	if cfg.AI.Demo {
		copywriter = media.NewDemoCopywriter()
		video = media.NewDemoVideoGenerator()
		log.Warn().Msg("demo mode: generation is simulated")
	} else {
		copywriter, err = media.NewOpenAICopywriter(cfg.AI.OpenAIKey, cfg.AI.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("openai copywriter init failed")
		}
		video, err = media.NewFalVideoGenerator(cfg.AI.FalKey)
		if err != nil {
			log.Fatal().Err(err).Msg("fal video generator init failed")
		}
	}
	copywriter = media.NewLimitedCopywriter(copywriter, cfg.AI.ConcurrentLimit)
	video = media.NewLimitedVideoGenerator(video, cfg.AI.ConcurrentLimit)
	genUC := usecase.NewGenerationUseCase(ledgerUC, copywriter, video, log)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.CookieDomain, cfg.Auth.SessionTTL)
	srv := web.NewServer(auth, accountUC, ledgerUC, paymentUC, genUC, rateLimiter, cfg.RateLimit.GeneratePerMinute, cfg.HTTP.RequestTimeout, log)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Payment reconciler ----
	if cfg.Reconciler.Interval > 0 {
		reconciler := sched.NewPaymentReconciler(paymentUC, sessionRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, log)
		go reconciler.Start(ctx)
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		log.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}
