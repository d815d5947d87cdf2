// Package main is the entry point for the Handcloud window client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/app/glclient"
	"github.com/Faultbox/handcloud/internal/config"
	"github.com/Faultbox/handcloud/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.DumpPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", path)
		return
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Handcloud ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := glclient.New(cfg)
	if err != nil {
		logger.Error("failed to create client", zap.Error(err))
		os.Exit(1)
	}
	defer c.Close()

	if err := c.Run(ctx); err != nil {
		logger.Error("client error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("client closed normally")
}
