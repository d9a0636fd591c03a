// Package tracklist содержит модель экрана библиотеки для TUI
package tracklist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/taraneem/internal/library"
	"github.com/hazadus/taraneem/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	promptStyle       = lipgloss.NewStyle().MarginLeft(2).MarginTop(1)
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

// SelectMsg отправляется при выборе трека для воспроизведения
type SelectMsg struct {
	ID string
}

// EditMsg отправляется при выборе трека для редактирования
type EditMsg struct {
	ID string
}

// DeleteMsg отправляется при удалении трека
type DeleteMsg struct {
	ID string
}

// MoveMsg отправляется при перестановке трека в библиотеке
type MoveMsg struct {
	From int
	To   int
}

// ImportMsg отправляется при вводе пути импортируемого файла
type ImportMsg struct {
	Path string
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track library.Track
}

func (i trackItem) FilterValue() string {
	return fmt.Sprintf("%s %s", i.track.Artist, i.track.Name)
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	favorite := " "
	if i.track.IsFavorite {
		favorite = "★"
	}
	duration := utils.FormatSeconds(i.track.Duration)
	str := fmt.Sprintf("%s %-24s %-44s %s",
		favorite,
		utils.TruncateString(i.track.Artist, 24),
		utils.TruncateString(i.track.Name, 44),
		duration)

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана библиотеки
type Model struct {
	lib           *library.Library
	list          list.Model
	favoritesOnly bool
	importInput   textinput.Model
	importing     bool
	status        string
	quitting      bool
}

// SetStatus задает строку состояния под списком (пустая строка очищает)
func (m *Model) SetStatus(status string) {
	m.status = status
}

// NewModel создает новую модель библиотеки
func NewModel(lib *library.Library) *Model {
	l := list.New(nil, trackItemDelegate{}, 0, 0)
	l.Title = "ترانيم — библиотека"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	input := textinput.New()
	input.Placeholder = "Путь к аудиофайлу"

	m := &Model{
		lib:         lib,
		list:        l,
		importInput: input,
	}
	m.RefreshData()
	return m
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// RefreshData обновляет элементы списка из библиотеки.
// Избранное — производная выборка поверх того же порядка.
func (m *Model) RefreshData() {
	var tracks []library.Track
	if m.favoritesOnly {
		tracks = m.lib.Favorites()
		m.list.Title = "ترانيم — избранное"
	} else {
		tracks = m.lib.Tracks()
		m.list.Title = "ترانيم — библиотека"
	}

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	m.list.SetItems(items)
	if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
}

// selectedTrack возвращает трек под курсором
func (m *Model) selectedTrack() (library.Track, bool) {
	item, ok := m.list.SelectedItem().(trackItem)
	if !ok {
		return library.Track{}, false
	}
	return item.track, true
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	if m.importing {
		return m.updateImport(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		// Во время фильтрации клавиши принадлежат списку
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if track, ok := m.selectedTrack(); ok {
				return m, func() tea.Msg {
					return SelectMsg{ID: track.ID}
				}
			}

		case "e":
			if track, ok := m.selectedTrack(); ok {
				return m, func() tea.Msg {
					return EditMsg{ID: track.ID}
				}
			}

		case "x":
			if track, ok := m.selectedTrack(); ok {
				return m, func() tea.Msg {
					return DeleteMsg{ID: track.ID}
				}
			}

		case "a":
			m.importing = true
			m.importInput.SetValue("")
			return m, m.importInput.Focus()

		case "f":
			m.favoritesOnly = !m.favoritesOnly
			m.RefreshData()
			return m, nil

		case "K", "shift+up":
			// Перестановки доступны только в полном списке
			if !m.favoritesOnly {
				index := m.list.Index()
				if index > 0 {
					return m, func() tea.Msg {
						return MoveMsg{From: index, To: index - 1}
					}
				}
			}

		case "J", "shift+down":
			if !m.favoritesOnly {
				index := m.list.Index()
				if index < len(m.list.Items())-1 {
					return m, func() tea.Msg {
						return MoveMsg{From: index, To: index + 1}
					}
				}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateImport обрабатывает ввод пути импортируемого файла
func (m *Model) updateImport(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.importing = false
			return m, nil

		case "enter":
			path := strings.TrimSpace(m.importInput.Value())
			m.importing = false
			if path == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				return ImportMsg{Path: path}
			}
		}
	}

	var cmd tea.Cmd
	m.importInput, cmd = m.importInput.Update(msg)
	return m, cmd
}

// MoveCursor сдвигает курсор списка вслед за перестановкой
func (m *Model) MoveCursor(index int) {
	if index >= 0 && index < len(m.list.Items()) {
		m.list.Select(index)
	}
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	if m.importing {
		return promptStyle.Render("Импорт аудиофайла") + "\n\n" +
			promptStyle.Render(m.importInput.View()) + "\n\n" +
			helpStyle.Render("Enter: импортировать • Esc: отмена")
	}

	view := m.list.View()
	extraHelp := helpStyle.Render(
		"Enter: играть • a: импорт • e: правка • x: удалить • f: избранное • J/K: переместить • q: выход")
	if m.status != "" {
		return view + "\n" + promptStyle.Render(m.status) + "\n" + extraHelp
	}
	return view + "\n" + extraHelp
}
