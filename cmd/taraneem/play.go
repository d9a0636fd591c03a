package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hazadus/taraneem/internal/playback"
	"github.com/hazadus/taraneem/internal/session"
	"github.com/hazadus/taraneem/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	var (
		loop bool
		rate float64
	)

	cmd := &cobra.Command{
		Use:   "play [№]",
		Short: "Play the library starting from a track",
		Long: `Play tracks starting from the given position (as shown by 'list').
After the last track playback continues from the first one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			position := 1
			if len(args) > 0 {
				var err error
				position, err = strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("неверный номер трека: %s", args[0])
				}
			}
			return app.playFrom(ctx, position, loop, rate)
		},
	}
	cmd.Flags().BoolVarP(&loop, "loop", "l", false, "повторять текущий трек")
	cmd.Flags().Float64VarP(&rate, "rate", "r", 0, "скорость воспроизведения (0.5, 1.0, 1.5, 2.0)")
	return cmd
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// readKeys читает одиночные символы и отправляет их в канал
func readKeys(keys chan<- byte) {
	buffer := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buffer); err != nil {
			return
		}
		keys <- buffer[0]
	}
}

func (app *Application) playFrom(ctx context.Context, position int, loop bool, rate float64) error {
	if err := app.hydrate(ctx); err != nil {
		return err
	}

	if app.Library.Len() == 0 {
		fmt.Println("📚 Библиотека пуста. Добавьте треки с помощью команды 'import'.")
		return nil
	}

	if rate != 0 {
		valid := false
		for _, r := range session.ValidRates {
			if r == rate {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("недопустимая скорость воспроизведения: %g", rate)
		}
	}

	prim := playback.NewBeepPlayer()
	defer func() {
		_ = prim.Close()
	}()

	controller := session.New(app.Library, prim, app.Logger)
	if err := controller.SelectTrack(position - 1); err != nil {
		return fmt.Errorf("трек № %d не найден", position)
	}
	if loop {
		controller.ToggleLoop()
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [n] - следующий трек, [l] - повтор, [q] или [Ctrl+C] - выход\n")
	fmt.Println()

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	keys := make(chan byte)
	go readKeys(keys)

	lastIndex := controller.CurrentIndex()
	announceTrack(controller)

	// Главный цикл обработки событий. Контроллер не потокобезопасен,
	// поэтому и события примитива, и нажатия клавиш обрабатываются здесь.
	for {
		select {
		case ev, ok := <-prim.Events():
			if !ok {
				return nil
			}
			controller.HandleEvent(ctx, ev)

			if rate != 0 && ev.Kind == playback.EventMetadataLoaded {
				if err := controller.SetRate(ctx, rate); err != nil {
					return err
				}
			}
			if controller.CurrentIndex() != lastIndex {
				lastIndex = controller.CurrentIndex()
				fmt.Println()
				announceTrack(controller)
			}
			if controller.State() == session.StateErrored {
				fmt.Printf("\n❌ Ошибка воспроизведения: %v\n", controller.LoadError())
				return controller.LoadError()
			}
			displayProgress(controller)

		case char := <-keys:
			switch char {
			case ' ', '\n', '\r':
				controller.TogglePlayPause()
				displayProgress(controller)
			case 'n':
				next := (controller.CurrentIndex() + 1) % app.Library.Len()
				if err := controller.SelectTrack(next); err != nil {
					return err
				}
				lastIndex = next
				fmt.Println()
				announceTrack(controller)
			case 'l':
				controller.ToggleLoop()
				displayProgress(controller)
			case 'q':
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				return nil
			}

		case <-ctx.Done():
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			return nil
		}
	}
}

// announceTrack выводит заголовок текущего трека
func announceTrack(controller *session.Controller) {
	track, ok := controller.CurrentTrack()
	if !ok {
		return
	}
	fmt.Printf("🎵 Сейчас играет: %s", track.Name)
	if track.Artist != "" {
		fmt.Printf(" — %s", track.Artist)
	}
	fmt.Println()
}

// displayProgress отображает строку прогресса воспроизведения
func displayProgress(controller *session.Controller) {
	track, ok := controller.CurrentTrack()
	if !ok {
		return
	}

	statusIcon := "▶️"
	statusText := "Воспроизведение"
	switch controller.State() {
	case session.StateLoading:
		statusIcon = "⏳"
		statusText = "Загрузка"
	case session.StateReadyPaused:
		statusIcon = "⏸️"
		statusText = "На паузе"
	case session.StateBuffering:
		statusIcon = "⚠️"
		statusText = "Буферизация"
	}

	loopMark := ""
	if controller.IsLooping() {
		loopMark = " | 🔁 Повтор"
	}

	fmt.Printf("\r\033[K%s  %s / %s | %.1fx | %s%s",
		statusIcon,
		utils.FormatSeconds(controller.CurrentTime()),
		utils.FormatSeconds(track.Duration),
		controller.Rate(),
		statusText,
		loopMark)
}
