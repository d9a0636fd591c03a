// Package app содержит основную логику TUI приложения
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hazadus/taraneem/internal/insight"
	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/playback"
	"github.com/hazadus/taraneem/internal/session"
	"github.com/hazadus/taraneem/internal/tui/editor"
	tuiPlayer "github.com/hazadus/taraneem/internal/tui/player"
	"github.com/hazadus/taraneem/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracklistScreen - экран библиотеки
	TracklistScreen ScreenType = iota
	// PlayerScreen - экран плеера
	PlayerScreen
	// EditorScreen - экран редактирования
	EditorScreen
)

// PlayerEventMsg событие примитива воспроизведения, доставленное в цикл TUI
type PlayerEventMsg struct {
	Event playback.Event
}

// MainModel представляет главную модель TUI
type MainModel struct {
	ctx            context.Context
	lib            *library.Library
	controller     *session.Controller
	prim           playback.Primitive
	insightClient  *insight.Client
	logger         *zap.Logger
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	editorModel    *editor.Model
	lastSize       tea.WindowSizeMsg
}

// NewMainModel создает новую главную модель
func NewMainModel(
	ctx context.Context,
	lib *library.Library,
	controller *session.Controller,
	prim playback.Primitive,
	insightClient *insight.Client,
	logger *zap.Logger,
) *MainModel {
	return &MainModel{
		ctx:            ctx,
		lib:            lib,
		controller:     controller,
		prim:           prim,
		insightClient:  insightClient,
		logger:         logger,
		currentScreen:  TracklistScreen,
		tracklistModel: tracklist.NewModel(lib),
		playerModel:    tuiPlayer.NewModel(ctx, controller, lib, insightClient),
	}
}

// Init инициализирует модель и запускает прослушивание событий примитива
func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(m.tracklistModel.Init(), m.listenForEvents())
}

// listenForEvents доставляет события примитива в цикл Bubble Tea.
// Контроллер сессии вызывается только отсюда: все события и все действия
// пользователя проходят через один цикл.
func (m *MainModel) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.prim.Events()
		if !ok {
			return nil
		}
		return PlayerEventMsg{Event: ev}
	}
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case PlayerEventMsg:
		m.controller.HandleEvent(m.ctx, msg.Event)

		cmds := []tea.Cmd{m.listenForEvents()}
		if msg.Event.Kind == playback.EventMetadataLoaded {
			// Длительность трека записана в библиотеку, обновляем список
			m.tracklistModel.RefreshData()
		}
		if m.currentScreen == PlayerScreen {
			_, playerCmd := m.playerModel.Update(tuiPlayer.RefreshMsg{})
			cmds = append(cmds, playerCmd)
		}
		return m, tea.Batch(cmds...)

	case tracklist.SelectMsg:
		index := m.lib.IndexOf(msg.ID)
		if index == -1 {
			return m, nil
		}
		if err := m.controller.SelectTrack(index); err != nil {
			m.logger.Error("ошибка выбора трека", zap.Error(err))
			return m, nil
		}
		m.currentScreen = PlayerScreen
		return m, m.playerModel.Init()

	case tracklist.ImportMsg:
		if _, err := m.controller.Import(m.ctx, msg.Path); err != nil {
			m.logger.Error("ошибка импорта", zap.Error(err))
			m.tracklistModel.SetStatus("Импорт не удался: " + err.Error())
			return m, nil
		}
		// Импортированный трек сразу становится текущим и играет
		m.tracklistModel.SetStatus("")
		m.tracklistModel.RefreshData()
		m.currentScreen = PlayerScreen
		return m, m.playerModel.Init()

	case tracklist.DeleteMsg:
		if err := m.controller.RemoveTrack(m.ctx, msg.ID); err != nil {
			m.logger.Error("ошибка удаления", zap.Error(err))
			m.tracklistModel.SetStatus("Удаление не удалось: " + err.Error())
			return m, nil
		}
		m.tracklistModel.RefreshData()
		return m, nil

	case tracklist.MoveMsg:
		if err := m.controller.Reorder(m.ctx, msg.From, msg.To); err != nil {
			m.logger.Error("ошибка перестановки", zap.Error(err))
			return m, nil
		}
		m.tracklistModel.RefreshData()
		m.tracklistModel.MoveCursor(msg.To)
		return m, nil

	case tracklist.EditMsg:
		index := m.lib.IndexOf(msg.ID)
		if track, ok := m.lib.TrackAt(index); ok {
			m.currentScreen = EditorScreen
			m.editorModel = editor.NewModel(m.ctx, m.lib, *track)
			return m, m.editorModel.Init()
		}
		return m, nil

	case tuiPlayer.GoBackMsg:
		// Возвращаемся к библиотеке, воспроизведение не прерывается
		m.currentScreen = TracklistScreen
		m.tracklistModel.RefreshData()
		return m, nil

	case editor.GoBackMsg:
		m.currentScreen = TracklistScreen
		m.editorModel = nil
		m.tracklistModel.RefreshData()
		return m, nil

	case editor.TrackSavedMsg:
		// Трек сохранен - остаемся в редакторе
		return m, nil

	case tea.WindowSizeMsg:
		m.lastSize = msg
		// Размеры нужны всем экранам
		var tracklistCmd tea.Cmd
		m.tracklistModel, tracklistCmd = m.tracklistModel.Update(msg)
		_, playerCmd := m.playerModel.Update(msg)
		return m, tea.Batch(tracklistCmd, playerCmd)
	}

	// Передаем сообщение активной модели
	switch m.currentScreen {
	case TracklistScreen:
		var tracklistCmd tea.Cmd
		m.tracklistModel, tracklistCmd = m.tracklistModel.Update(msg)
		cmd = tracklistCmd

	case PlayerScreen:
		updatedModel, playerCmd := m.playerModel.Update(msg)
		if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
			m.playerModel = playerModel
		}
		cmd = playerCmd

	case EditorScreen:
		if m.editorModel != nil {
			var editorCmd tea.Cmd
			m.editorModel, editorCmd = m.editorModel.Update(msg)
			cmd = editorCmd
		}
	}

	return m, cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case TracklistScreen:
		return m.tracklistModel.View()

	case PlayerScreen:
		return m.playerModel.View()

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Ошибка: модель редактора не инициализирована"

	default:
		return "Неизвестный экран"
	}
}

// Close закрывает ресурсы главной модели
func (m *MainModel) Close() {
	if err := m.prim.Close(); err != nil {
		m.logger.Warn("ошибка закрытия плеера", zap.Error(err))
	}
}
