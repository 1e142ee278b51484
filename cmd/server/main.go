package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"darkweb/internal/config"
	"darkweb/internal/db"
	"darkweb/internal/router"
	"darkweb/internal/utils"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer utils.Logger.Sync()

	db.Init(cfg)

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		utils.Logger.Fatal("create uploads dir failed", zap.String("dir", cfg.UploadsDir), zap.Error(err))
	}

	r, err := router.New(cfg)
	if err != nil {
		utils.Logger.Fatal("build router failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		utils.Logger.Info("darkweb server starting", zap.String("addr", srv.Addr), zap.String("db", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
