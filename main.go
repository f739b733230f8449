package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/promolink/config"
	"sjsage522/promolink/internal/app"
	"sjsage522/promolink/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	cfg := config.LoadConfig()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.HTTPAddr).
		Msg("Starting promolink")

	if err := a.Serve(ctx); err != nil {
		logger.LogError("server", err, "Server exited with error")
		stop()
		a.Close()
		os.Exit(1)
	}
	log.Info().Msg("Shut down gracefully")
}
