// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hazadus/taraneem/internal/insight"
	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/playback"
	"github.com/hazadus/taraneem/internal/session"
	"github.com/hazadus/taraneem/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	ctx           context.Context
	lib           *library.Library
	controller    *session.Controller
	prim          playback.Primitive
	insightClient *insight.Client
	logger        *zap.Logger
}

// NewApp создает новый экземпляр TUI приложения
func NewApp(
	ctx context.Context,
	lib *library.Library,
	controller *session.Controller,
	prim playback.Primitive,
	insightClient *insight.Client,
	logger *zap.Logger,
) *App {
	return &App{
		ctx:           ctx,
		lib:           lib,
		controller:    controller,
		prim:          prim,
		insightClient: insightClient,
		logger:        logger,
	}
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	model := app.NewMainModel(
		tuiApp.ctx,
		tuiApp.lib,
		tuiApp.controller,
		tuiApp.prim,
		tuiApp.insightClient,
		tuiApp.logger,
	)

	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()

	// Закрываем плеер после завершения программы
	model.Close()

	return err
}
