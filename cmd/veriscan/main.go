package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"veriscan/internal/config"
	"veriscan/internal/domain"
	"veriscan/internal/genai"
	"veriscan/internal/notify"
	"veriscan/internal/observability/logging"
	"veriscan/internal/observability/metrics"
	obsmw "veriscan/internal/observability/middleware"
	impl "veriscan/internal/service/impl"
	"veriscan/internal/store"
	httpx "veriscan/internal/transport/http"
	"veriscan/pkg/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "veriscan",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	logger.Info("starting service")

	cfg := config.Load()

	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: os.Getenv("LOG_SQL") == "true"})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	if err := gdb.AutoMigrate(&domain.Identity{}, &domain.OTPChallenge{}, &domain.HistoryEntry{}); err != nil {
		logger.Error("automigrate", "error", err)
		os.Exit(1)
	}

	st := store.New(gdb)

	metrics.MustRegister("veriscan")

	notifier := notify.New(cfg.SMSGatewayURL, cfg.SMSGatewayKey, 10*time.Second)
	model := genai.NewClient(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.ModelName, cfg.ModelTimeout)

	tokens := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:     cfg.Issuer,
		TTL:        cfg.SessionTTL,
		SigningKey: []byte(cfg.SigningKey),
	})
	authSvc := impl.NewAuthServiceImpl(st, tokens, notifier, cfg.OTPTTL)
	analysisSvc := impl.NewAnalysisServiceImpl(model, st)

	router := httpx.NewRouter(authSvc, analysisSvc, tokens, httpx.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimit,
	})
	handler := obsmw.WithRequestAndTrace(obsmw.WithMetrics(router))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		slog.Info("veriscan listening", "addr", srv.Addr, "model", cfg.ModelName)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
