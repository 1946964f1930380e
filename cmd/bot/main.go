package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"xports-bot/internal/auth"
	"xports-bot/internal/config"
	"xports-bot/internal/payments"
	"xports-bot/internal/server"
	"xports-bot/internal/tgbot"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	authProvider := auth.NewRESTProvider(cfg.AuthBaseURL, cfg.AuthAPIKey)

	payProvider, err := payments.NewProvider(cfg)
	if err != nil {
		logger.Fatalw("payments", "err", err)
	}

	botApp, err := tgbot.New(cfg, authProvider, payProvider, logger)
	if err != nil {
		logger.Fatalw("telegram", "err", err)
	}

	httpSrv := server.New(cfg, botApp, logger)

	go func() {
		logger.Infow("http listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("http server", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := botApp.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Errorw("bot stopped", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Infow("shutting down")

	cancel()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)
}
