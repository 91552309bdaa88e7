// Package main is the entry point for the terrain streaming demo.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/helioforge/terrastream/internal/config"
	"github.com/helioforge/terrastream/internal/logger"
	"github.com/helioforge/terrastream/internal/sim"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Terrastream ===",
		zap.Int64("seed", cfg.Generation.Seed),
		zap.Int("workers", cfg.Streaming.NumWorkerThreads),
		zap.Bool("threaded", cfg.Streaming.UseBackgroundThread))

	s, err := sim.New(cfg, logger.Log)
	if err != nil {
		logger.Error("failed to create simulation", zap.Error(err))
		os.Exit(1)
	}

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Info("shutting down")
		close(stop)
	}()

	s.Run(stop)
	logger.Info("simulation finished")
}
