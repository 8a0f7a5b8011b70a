package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"mixmeet/internal/util"
	"mixmeet/services/auth/internal/app"
	"mixmeet/services/auth/internal/config"
	"mixmeet/services/auth/internal/server"
	"mixmeet/services/auth/internal/waclient"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	trustedProxies, err := util.NewTrustedProxies(cfg.TrustedProxyCidrs)
	if err != nil {
		log.Fatalf("failed to parse trusted proxy cidrs: %v", err)
	}

	appCore, err := app.New(app.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		JWTSecret:     cfg.JWTSecret,
		Gateway:       waclient.NewClient(cfg.WhatsAppServiceURL),
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                           appCore,
		RedisAddr:                     cfg.RedisAddr,
		RedisPassword:                 cfg.RedisPassword,
		RequestCodeRateLimitPerMinute: cfg.RequestCodeRateLimitPerMinute,
		TrustedProxies:                trustedProxies,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("auth server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
