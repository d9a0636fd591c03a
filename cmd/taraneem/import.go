package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/utils"
)

// createImportCommand создает команду import с привязкой к экземпляру приложения
func (app *Application) createImportCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file path...]",
		Short: "Import audio files into the library",
		Long:  `Copy local audio files into the library. Files that are not audio are rejected.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.importFiles(ctx, args)
		},
	}
}

// importFiles импортирует файлы по одному; неподдерживаемые файлы
// пропускаются с предупреждением, не прерывая остальные
func (app *Application) importFiles(ctx context.Context, paths []string) error {
	if err := app.hydrate(ctx); err != nil {
		return err
	}

	imported := 0
	for _, path := range paths {
		track, err := app.Library.Import(ctx, path)
		if err != nil {
			if errors.Is(err, library.ErrUnsupportedMedia) {
				fmt.Printf("⚠️  Пропущен (не аудио): %s\n", path)
				continue
			}
			return fmt.Errorf("ошибка импорта %s: %w", path, err)
		}

		duration := "??:??"
		if track.Duration > 0 {
			duration = utils.FormatSeconds(track.Duration)
		}
		fmt.Printf("🎵 Импортирован: %s", track.Name)
		if track.Artist != "" {
			fmt.Printf(" — %s", track.Artist)
		}
		fmt.Printf(" (%s)\n", duration)
		imported++
	}

	fmt.Printf("\n📦 Импортировано треков: %d\n", imported)
	return nil
}
