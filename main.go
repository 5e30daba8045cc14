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

	"github.com/Visionatedigital/M-and-T/assistant"
	"github.com/Visionatedigital/M-and-T/config"
	"github.com/Visionatedigital/M-and-T/database"
	"github.com/Visionatedigital/M-and-T/handlers"
	"github.com/Visionatedigital/M-and-T/middleware"
	"github.com/Visionatedigital/M-and-T/services"
	"github.com/Visionatedigital/M-and-T/utils"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	config.ValidateConfig(cfg)

	if err := utils.InitializeEncryption(cfg.EncryptionKey); err != nil {
		log.Fatal("Failed to initialize encryption:", err)
	}
	if err := utils.InitializeJWT(cfg.JWTSecret); err != nil {
		log.Fatal("Failed to initialize JWT:", err)
	}

	db, err := database.Initialize(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.Environment == "development")
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	svc := services.New(db, services.Options{LegacyTransitions: cfg.LegacyTransitions})

	// A nil completer keeps the assistant endpoints answering 502.
	var completer assistant.Completer
	if cfg.AssistantEnabled() {
		oc := openai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oc.BaseURL = cfg.OpenAI.BaseURL
		}
		completer = openai.NewClientWithConfig(oc)
	}
	asst := assistant.New(completer, assistant.NewRegistry(db, svc.Portfolio), assistant.Config{
		Model:               cfg.OpenAI.Model,
		MaxCompletionTokens: cfg.OpenAI.MaxCompletionTokens,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Cleanup(ctx, 3*time.Minute)

	h := handlers.NewHandlers(svc, asst, cfg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, limiter),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// completions with a tool round can take a while
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("Environment: %s", cfg.Environment)
		log.Printf("Database: %s", cfg.DatabaseDriver)
		if cfg.Environment == "development" {
			log.Printf("Admin Code: %s", cfg.AdminCode)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
