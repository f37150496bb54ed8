package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/config"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/server"
	"github.com/Osama-Zahid1/Predication-Protein-Model/internal/utils/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		logger.Init("", "")
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}
	logger.Init(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	s := server.NewServer(cfg.ServerEnvConfig, server.WithDefaultThreshold(cfg.DefaultThreshold))

	log.Info().Str("address", s.Address()).Float64("default_threshold", cfg.DefaultThreshold).Msg("Server starting")
	log.Info().Msg("Endpoints:")
	log.Info().Msg("  POST " + server.EvaluatePath)
	log.Info().Msg("  POST " + server.OptimizePath)
	log.Info().Msg("  POST " + server.BinarizePath)
	log.Info().Msg("  GET /health")

	if err := s.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("Server stopped")
}
