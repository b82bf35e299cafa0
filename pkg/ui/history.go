package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/chatwidget/pkg/savehook"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

const historyListWidth = 44

var (
	historyTitleStyle = lipgloss.NewStyle().MarginLeft(2).Bold(true).Foreground(lipgloss.Color("#FFFDF5"))
	infoTitleStyle    = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#FFFDF5"))
	infoKeyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFAF"))
	infoValueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5"))

	historyPane = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("170")).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			Bold(true)

	modalHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Padding(1, 0, 0, 0)
)

const (
	normalMode = iota
	modalMode
)

// exchangeItem is a saved exchange as a list row.
type exchangeItem struct {
	savehook.StoredExchange
}

func (e exchangeItem) savedAt() time.Time { return time.UnixMilli(e.SavedAtMs) }

func (e exchangeItem) Title() string { return firstLine(e.Question, historyListWidth-8) }
func (e exchangeItem) Description() string {
	return e.UserID + " · " + e.savedAt().Format("2006-01-02 15:04")
}
func (e exchangeItem) FilterValue() string { return e.Question }

func (e exchangeItem) summary() string {
	var sb strings.Builder
	sb.WriteString(infoTitleStyle.Render("Exchange"))
	sb.WriteString("\n\n")
	writeField(&sb, "User", e.UserID)
	writeField(&sb, "Saved", e.savedAt().Format(time.RFC1123))
	sb.WriteString("\n")
	writeField(&sb, "Question", firstLine(e.Question, 200))
	writeField(&sb, "Answer", firstLine(e.Answer, 200))
	sb.WriteString("\n")
	sb.WriteString(infoKeyStyle.Render("Press Enter for the full text"))
	return sb.String()
}

func (e exchangeItem) detailed() string {
	var sb strings.Builder
	writeField(&sb, "User", e.UserID)
	writeField(&sb, "Saved", e.savedAt().Format(time.RFC1123))
	sb.WriteString("\n")
	sb.WriteString(infoTitleStyle.Render("Question"))
	sb.WriteString("\n" + e.Question + "\n\n")
	sb.WriteString(infoTitleStyle.Render("Answer"))
	sb.WriteString("\n" + e.Answer + "\n")
	return sb.String()
}

func writeField(sb *strings.Builder, key, value string) {
	sb.WriteString(infoKeyStyle.Render(key + ": "))
	sb.WriteString(infoValueStyle.Render(value))
	sb.WriteString("\n")
}

func firstLine(s string, limit int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	if r := []rune(s); len(r) > limit {
		s = string(r[:limit-1]) + "…"
	}
	return s
}

// History browses exchanges recorded by the SQLite save sink: a list on the
// left, a summary on the right and a modal with the full text.
type History struct {
	list          list.Model
	viewport      viewport.Model
	modalViewport viewport.Model
	selected      *exchangeItem
	ready         bool
	width         int
	height        int
	mode          int
}

func NewHistory(exchanges []savehook.StoredExchange) History {
	items := make([]list.Item, 0, len(exchanges))
	// newest first
	for i := len(exchanges) - 1; i >= 0; i-- {
		items = append(items, exchangeItem{exchanges[i]})
	}

	l := list.New(items, list.NewDefaultDelegate(), historyListWidth, defaultHeight-4)
	l.Title = "Saved exchanges"
	l.Styles.Title = historyTitleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	h := History{list: l, mode: normalMode}
	h.resize(defaultWidth, defaultHeight)
	h.selectCurrent()
	return h
}

func (h History) Init() tea.Cmd { return nil }

func (h *History) resize(width, height int) {
	h.width, h.height = width, height
	h.list.SetSize(historyListWidth, max(height-4, 3))
	h.viewport = viewport.New(max(width-historyListWidth-8, 10), max(height-4, 3))
	h.modalViewport = viewport.New(max(width-24, 10), max(height-14, 3))
	if h.selected != nil {
		h.viewport.SetContent(h.selected.summary())
	}
	h.ready = true
}

func (h *History) selectCurrent() {
	item, ok := h.list.SelectedItem().(exchangeItem)
	if !ok {
		h.selected = nil
		return
	}
	if h.selected != nil && h.selected.ID == item.ID {
		return
	}
	h.selected = &item
	h.viewport.SetContent(item.summary())
	h.viewport.GotoTop()
}

// Selected returns the exchange under the cursor.
func (h History) Selected() (savehook.StoredExchange, bool) {
	if h.selected == nil {
		return savehook.StoredExchange{}, false
	}
	return h.selected.StoredExchange, true
}

func (h History) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.resize(msg.Width, msg.Height)
		return h, nil

	case tea.KeyMsg:
		switch h.mode {
		case normalMode:
			switch msg.String() {
			case "ctrl+c":
				return h, tea.Quit
			case "q":
				if h.list.FilterState() != list.Filtering {
					return h, tea.Quit
				}
			case "enter":
				if h.selected != nil && h.list.FilterState() != list.Filtering {
					h.mode = modalMode
					h.modalViewport.SetContent(h.selected.detailed())
					h.modalViewport.GotoTop()
					return h, nil
				}
			}

			var cmd tea.Cmd
			h.list, cmd = h.list.Update(msg)
			h.selectCurrent()
			cmds = append(cmds, cmd)

		case modalMode:
			switch msg.String() {
			case "ctrl+c", "q":
				return h, tea.Quit
			case "esc", "enter", "backspace":
				h.mode = normalMode
				return h, nil
			}
			var cmd tea.Cmd
			h.modalViewport, cmd = h.modalViewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return h, tea.Batch(cmds...)
}

func (h History) baseView() string {
	listContent := historyPane.Width(historyListWidth).Render(h.list.View())

	info := infoKeyStyle.Render("No saved exchanges")
	if h.selected != nil {
		info = h.viewport.View()
	}
	infoContent := historyPane.
		Width(max(h.width-historyListWidth-6, 10)).
		Height(max(h.height-4, 3)).
		Render(info)

	return lipgloss.JoinHorizontal(lipgloss.Top, listContent, infoContent)
}

func (h History) View() string {
	if !h.ready {
		return "Loading..."
	}
	if h.mode != modalMode {
		return h.baseView()
	}

	modal := modalStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		modalTitleStyle.Render(" Exchange "),
		h.modalViewport.View(),
		modalHelpStyle.Render("Press ESC or Enter to close"),
	))
	return overlay.New(staticView(modal), staticView(h.baseView()), overlay.Center, overlay.Center, 0, 0).View()
}
