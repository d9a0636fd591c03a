// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/taraneem/internal/insight"
	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/session"
	"github.com/hazadus/taraneem/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4da8ab")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	selectedTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170"))

	insightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4da8ab")).
			Italic(true).
			MarginTop(1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// GoBackMsg отправляется для возврата к библиотеке; воспроизведение продолжается
type GoBackMsg struct{}

// RefreshMsg перерисовывает экран после события примитива
type RefreshMsg struct{}

// InsightMsg приносит описание трека от текстового сервиса
type InsightMsg struct {
	Text string
}

// Model представляет модель экрана воспроизведения
type Model struct {
	ctx         context.Context
	controller  *session.Controller
	lib         *library.Library
	insight     *insight.Client
	progressBar progress.Model
	tsCursor    int
	insightText string
	width       int
}

// NewModel создает новую модель плеера поверх общего контроллера сессии
func NewModel(ctx context.Context, controller *session.Controller, lib *library.Library, insightClient *insight.Client) *Model {
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		ctx:         ctx,
		controller:  controller,
		lib:         lib,
		insight:     insightClient,
		progressBar: prog,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// cycleRate возвращает следующую скорость из допустимого набора
func cycleRate(current float64) float64 {
	for i, rate := range session.ValidRates {
		if rate == current {
			return session.ValidRates[(i+1)%len(session.ValidRates)]
		}
	}
	return session.ValidRates[1]
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case RefreshMsg:
		track, ok := m.controller.CurrentTrack()
		if !ok {
			return m, nil
		}
		var percent float64
		if track.Duration > 0 {
			percent = m.controller.CurrentTime() / track.Duration
		}
		return m, m.progressBar.SetPercent(percent)

	case InsightMsg:
		m.insightText = msg.Text
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// updateKeys обрабатывает клавиши экрана воспроизведения
func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	track, hasTrack := m.controller.CurrentTrack()

	switch msg.String() {
	case "q", "esc":
		return m, func() tea.Msg {
			return GoBackMsg{}
		}

	case " ":
		m.controller.TogglePlayPause()
		return m, nil

	case "left":
		m.controller.Skip(-10)
		return m, nil

	case "right":
		m.controller.Skip(10)
		return m, nil

	case "r":
		if hasTrack {
			_ = m.controller.SetRate(m.ctx, cycleRate(m.controller.Rate()))
		}
		return m, nil

	case "l":
		m.controller.ToggleLoop()
		return m, nil

	case "n":
		// Следующий трек по кругу
		if hasTrack && m.lib.Len() > 0 {
			m.tsCursor = 0
			_ = m.controller.SelectTrack((m.controller.CurrentIndex() + 1) % m.lib.Len())
		}
		return m, nil

	case "p":
		// Предыдущий трек по кругу
		if hasTrack && m.lib.Len() > 0 {
			m.tsCursor = 0
			_ = m.controller.SelectTrack((m.controller.CurrentIndex() - 1 + m.lib.Len()) % m.lib.Len())
		}
		return m, nil

	case "f":
		if hasTrack {
			_, _ = m.lib.ToggleFavorite(m.ctx, track.ID)
		}
		return m, nil

	case "t":
		if hasTrack {
			_, _ = m.lib.AddTimestamp(m.ctx, track.ID, m.controller.CurrentTime())
		}
		return m, nil

	case "up":
		if m.tsCursor > 0 {
			m.tsCursor--
		}
		return m, nil

	case "down":
		if hasTrack && m.tsCursor < len(track.Timestamps)-1 {
			m.tsCursor++
		}
		return m, nil

	case "enter":
		if hasTrack && m.tsCursor < len(track.Timestamps) {
			m.controller.Seek(track.Timestamps[m.tsCursor].Time)
		}
		return m, nil

	case "x":
		if hasTrack && m.tsCursor < len(track.Timestamps) {
			_ = m.lib.RemoveTimestamp(m.ctx, track.ID, track.Timestamps[m.tsCursor].ID)
			if m.tsCursor > 0 {
				m.tsCursor--
			}
		}
		return m, nil

	case "i":
		if hasTrack {
			return m, m.fetchInsight(track.Name)
		}
		return m, nil

	case "R":
		m.controller.Retry()
		return m, nil
	}

	return m, nil
}

// fetchInsight запрашивает описание трека, не блокируя интерфейс
func (m *Model) fetchInsight(trackName string) tea.Cmd {
	return func() tea.Msg {
		return InsightMsg{Text: m.insight.TrackInsight(m.ctx, trackName)}
	}
}

// View отображает модель
func (m *Model) View() string {
	track, ok := m.controller.CurrentTrack()
	if !ok {
		return titleStyle.Render("Библиотека пуста") + "\n" +
			controlsStyle.Render("Нажмите 'q' для возврата")
	}

	if err := m.controller.LoadError(); err != nil {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("❌ Ошибка воспроизведения"),
			errorStyle.Render(err.Error()),
			controlsStyle.Render("R: повторить • q: к библиотеке"),
		)
	}

	title := titleStyle.Render("🎵 " + track.Name)

	favorite := ""
	if track.IsFavorite {
		favorite = " ★"
	}
	artist := track.Artist
	if artist == "" {
		artist = "—"
	}
	trackInfo := trackInfoStyle.Render(fmt.Sprintf("🎤 %s%s", artist, favorite))

	statusIcon := "⏸️"
	statusText := "Пауза"
	switch m.controller.State() {
	case session.StateLoading:
		statusIcon = "⏳"
		statusText = "Загрузка"
	case session.StateBuffering:
		statusIcon = "⏳"
		statusText = "Буферизация"
	case session.StateReadyPlaying:
		statusIcon = "▶️"
		statusText = "Воспроизведение"
	}

	loop := ""
	if m.controller.IsLooping() {
		loop = " 🔁"
	}
	status := statusStyle.Render(fmt.Sprintf("%s %s • %.1fx%s", statusIcon, statusText, m.controller.Rate(), loop))

	timeText := fmt.Sprintf(
		"%s / %s",
		utils.FormatSeconds(m.controller.CurrentTime()),
		utils.FormatSeconds(track.Duration),
	)

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(trackInfo + "\n")
	b.WriteString(status + "\n")
	b.WriteString(m.progressBar.View() + "\n")
	b.WriteString(timeText + "\n")

	if len(track.Timestamps) > 0 {
		b.WriteString("\n" + statusStyle.Render("Закладки") + "\n")
		for i, ts := range track.Timestamps {
			line := fmt.Sprintf("%s — %s", utils.FormatSeconds(ts.Time), ts.Label)
			if i == m.tsCursor {
				b.WriteString(selectedTimestampStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString(timestampStyle.Render("  "+line) + "\n")
			}
		}
	}

	if m.insightText != "" {
		b.WriteString(insightStyle.Render(m.insightText) + "\n")
	}

	b.WriteString(controlsStyle.Render(
		"Пробел: пауза • ←/→: ±10с • n/p: трек • r: скорость • l: повтор • f: избранное\n" +
			"t: закладка • ↑/↓/Enter/x: закладки • i: описание • q: к библиотеке"))

	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
