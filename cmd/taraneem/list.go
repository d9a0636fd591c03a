package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/taraneem/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand(ctx context.Context) *cobra.Command {
	var favoritesOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tracks from the library",
		Long:  `Display the library in playback order, with favorites and bookmarks.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.listTracks(ctx, favoritesOnly)
		},
	}
	cmd.Flags().BoolVarP(&favoritesOnly, "favorites", "f", false, "показать только избранные треки")
	return cmd
}

func (app *Application) listTracks(ctx context.Context, favoritesOnly bool) error {
	if err := app.hydrate(ctx); err != nil {
		return err
	}

	tracks := app.Library.Tracks()
	if favoritesOnly {
		tracks = app.Library.Favorites()
	}

	if len(tracks) == 0 {
		fmt.Println("📚 Библиотека пуста. Добавьте треки с помощью команды 'import'.")
		return nil
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))

	fmt.Printf("%-4s %-2s %-30s %-24s %-10s %-8s\n",
		"№", "★", "Название", "Исполнитель", "Длит.", "Закладки")
	fmt.Println(strings.Repeat("-", 84))

	for _, track := range tracks {
		favorite := " "
		if track.IsFavorite {
			favorite = "★"
		}

		duration := utils.FormatSeconds(track.Duration)
		if track.Duration == 0 {
			duration = "N/A"
		}

		fmt.Printf("%-4d %-2s %-30s %-24s %-10s %-8d\n",
			track.Order+1,
			favorite,
			utils.TruncateString(track.Name, 28),
			utils.TruncateString(track.Artist, 22),
			duration,
			len(track.Timestamps))
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'taraneem play [№]' для воспроизведения трека")
	return nil
}
