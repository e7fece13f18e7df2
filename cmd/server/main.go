package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groupchat/backend/internal/models"
	"groupchat/backend/internal/push"
	"groupchat/backend/internal/repository"
	"groupchat/backend/internal/service"
	"groupchat/backend/pkg/config"
	"groupchat/backend/pkg/logger"
	"groupchat/backend/pkg/router"
)

func main() {
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting group chat server", "env", cfg.Server.Env)

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(&models.Message{}, &models.PushSubscription{}); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	messages := service.NewMessageService(repository.NewGormMessageRepository(db))
	subscriptions, err := service.NewSubscriptionService(repository.NewGormSubscriptionRepository(db))
	if err != nil {
		log.LogError(err, "Failed to load push subscriptions")
		os.Exit(1)
	}

	dispatcher := push.NewDispatcher(log, cfg.Push.Timeout, cfg.Push.Concurrency)

	r := router.New(messages, subscriptions, dispatcher, log)
	r.SetupRoutes()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Graceful shutdown: stop accepting connections, let in-flight pushes
	// finish, close the database.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	done := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.Push.Timeout):
		log.Warn("Gave up waiting for in-flight push deliveries")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info("Server exited")
}
