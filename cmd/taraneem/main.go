package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hazadus/taraneem/internal/config"
	"github.com/hazadus/taraneem/internal/insight"
	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/logger"
	"github.com/hazadus/taraneem/internal/store"
)

const (
	defaultConfigPath = "~/.taraneem.yml"
)

// Application связывает компоненты приложения для команд CLI
type Application struct {
	Config  *config.Config
	Store   *store.FileStore
	Library *library.Library
	Insight *insight.Client
	Logger  *zap.Logger
}

// hydrate загружает библиотеку из хранилища. Вызывается каждой командой,
// работающей с треками, до любого взаимодействия с пользователем.
func (app *Application) hydrate(ctx context.Context) error {
	return app.Library.Hydrate(ctx)
}

func main() {
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger := logger.New(cfg.LogPath, cfg.Debug)
	defer func() {
		_ = zapLogger.Sync()
	}()

	st, err := store.NewFileStore(cfg.LibraryDir)
	if err != nil {
		log.Fatalf("Ошибка открытия хранилища: %v", err)
	}

	app := &Application{
		Config:  cfg,
		Store:   st,
		Library: library.New(st, zapLogger, cfg.PlaceholderCoverPath()),
		Insight: insight.NewClient(cfg.InsightBaseURL, cfg.InsightAPIKey, cfg.InsightModel),
		Logger:  zapLogger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := app.createRootCommand(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
