// Package editor содержит модель экрана редактирования метаданных трека для TUI
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/taraneem/internal/library"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(15)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Margin(1, 0)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Margin(1, 0)
)

// TrackSavedMsg отправляется когда трек успешно сохранен
type TrackSavedMsg struct{}

// GoBackMsg отправляется при отмене редактирования
type GoBackMsg struct{}

// fieldType определяет тип поля для редактирования
type fieldType int

const (
	nameField fieldType = iota
	artistField
	coverField
	numFields
)

// Model представляет модель экрана редактирования трека
type Model struct {
	ctx        context.Context
	lib        *library.Library
	trackID    string
	inputs     []textinput.Model
	focusIndex int
	err        string
	success    string
}

// NewModel создает новую модель редактора трека
func NewModel(ctx context.Context, lib *library.Library, track library.Track) *Model {
	inputs := make([]textinput.Model, numFields)

	// Поле названия
	inputs[nameField] = textinput.New()
	inputs[nameField].Placeholder = "Название трека"
	inputs[nameField].SetValue(track.Name)
	inputs[nameField].Focus()
	inputs[nameField].PromptStyle = focusedStyle
	inputs[nameField].TextStyle = focusedStyle

	// Поле исполнителя
	inputs[artistField] = textinput.New()
	inputs[artistField].Placeholder = "Исполнитель"
	inputs[artistField].SetValue(track.Artist)

	// Поле обложки: путь к файлу изображения
	inputs[coverField] = textinput.New()
	inputs[coverField].Placeholder = "Путь к новой обложке (пусто — без изменений)"

	return &Model{
		ctx:     ctx,
		lib:     lib,
		trackID: track.ID,
		inputs:  inputs,
	}
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case "ctrl+s":
			return m, m.saveTrack()

		case "tab", "shift+tab", "up", "down":
			// Перемещение фокуса между полями
			if msg.String() == "up" || msg.String() == "shift+tab" {
				m.focusIndex--
			} else {
				m.focusIndex++
			}
			if m.focusIndex >= int(numFields) {
				m.focusIndex = 0
			} else if m.focusIndex < 0 {
				m.focusIndex = int(numFields) - 1
			}

			cmds := make([]tea.Cmd, len(m.inputs))
			for i := range m.inputs {
				if i == m.focusIndex {
					cmds[i] = m.inputs[i].Focus()
					m.inputs[i].PromptStyle = focusedStyle
					m.inputs[i].TextStyle = focusedStyle
					continue
				}
				m.inputs[i].Blur()
				m.inputs[i].PromptStyle = blurredStyle
				m.inputs[i].TextStyle = blurredStyle
			}
			return m, tea.Batch(cmds...)
		}
	}

	cmd := m.updateInputs(msg)
	return m, cmd
}

// updateInputs передает сообщение полям ввода
func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

// saveTrack сохраняет изменения через операции библиотеки
func (m *Model) saveTrack() tea.Cmd {
	name := strings.TrimSpace(m.inputs[nameField].Value())
	artist := m.inputs[artistField].Value()
	coverPath := strings.TrimSpace(m.inputs[coverField].Value())

	if name == "" {
		m.err = "Название не может быть пустым"
		m.success = ""
		return nil
	}

	if _, err := m.lib.Update(m.ctx, m.trackID, library.Patch{
		Name:   &name,
		Artist: &artist,
	}); err != nil {
		m.err = fmt.Sprintf("Ошибка сохранения: %v", err)
		m.success = ""
		return nil
	}

	if coverPath != "" {
		if _, err := m.lib.SetCover(m.ctx, m.trackID, coverPath); err != nil {
			if errors.Is(err, library.ErrUnsupportedImage) {
				m.err = "Файл обложки не является изображением"
			} else {
				m.err = fmt.Sprintf("Ошибка обложки: %v", err)
			}
			m.success = ""
			return nil
		}
		m.inputs[coverField].SetValue("")
	}

	m.err = ""
	m.success = "Сохранено"
	return func() tea.Msg {
		return TrackSavedMsg{}
	}
}

// View отображает модель
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("✏️  Редактирование трека") + "\n\n")

	labels := []string{"Название:", "Исполнитель:", "Обложка:"}
	for i := range m.inputs {
		b.WriteString(labelStyle.Render(labels[i]))
		b.WriteString(m.inputs[i].View() + "\n")
	}

	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err) + "\n")
	}
	if m.success != "" {
		b.WriteString(successStyle.Render(m.success) + "\n")
	}

	b.WriteString(helpStyle.Render("Tab: следующее поле • Ctrl+S: сохранить • Esc: назад"))
	return b.String()
}
