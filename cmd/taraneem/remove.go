package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// createRemoveCommand создает команду remove с привязкой к экземпляру приложения
func (app *Application) createRemoveCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [№]",
		Short: "Remove a track from the library",
		Long:  `Remove a track by its position (as shown by 'list') together with its audio file and cover.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("неверный номер трека: %s", args[0])
			}
			return app.removeByPosition(ctx, position)
		},
	}
}

func (app *Application) removeByPosition(ctx context.Context, position int) error {
	if err := app.hydrate(ctx); err != nil {
		return err
	}

	track, ok := app.Library.TrackAt(position - 1)
	if !ok {
		return fmt.Errorf("трек № %d не найден", position)
	}

	name := track.Name
	if err := app.Library.Remove(ctx, track.ID); err != nil {
		return fmt.Errorf("ошибка удаления трека: %w", err)
	}

	fmt.Printf("🗑️  Трек удален: %s\n", name)
	return nil
}
