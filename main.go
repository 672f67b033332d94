package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"hejchat/chat"
	"hejchat/config"
	"hejchat/provider"
	"hejchat/storage"
	"hejchat/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Printf("Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting hejchat",
		zap.String("version", Version),
		zap.String("data_dir", cfg.DataDir()))

	store, err := storage.Open(cfg.DataDir())
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	client := provider.NewClient(cfg.Endpoint, logger)
	engine := chat.NewEngine(client, store, cfg.DefaultSystemPrompt, logger)

	server := ui.NewServer(cfg.ListenAddr, engine, store, logger)

	fmt.Printf("HejChat %s listening on http://%s\n", Version, cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	if config.CheckDebug() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
