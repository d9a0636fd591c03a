package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hazadus/taraneem/internal/playback"
	"github.com/hazadus/taraneem/internal/session"
	"github.com/hazadus/taraneem/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive player",
		Long:  `Run the full-screen interactive interface: library, player, track editor.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.runTUI(ctx)
		},
	}
}

func (app *Application) runTUI(ctx context.Context) error {
	if err := app.hydrate(ctx); err != nil {
		return err
	}

	prim := playback.NewBeepPlayer()
	controller := session.New(app.Library, prim, app.Logger)
	controller.SelectInitial()

	tuiApp := tui.NewApp(ctx, app.Library, controller, prim, app.Insight, app.Logger)
	return tuiApp.Run()
}
