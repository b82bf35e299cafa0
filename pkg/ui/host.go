package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

// Host mounts a widget over a host view. Key presses go to the widget while
// its panel is open and to the background otherwise; everything else reaches
// both.
type Host struct {
	Widget     Model
	Background tea.Model

	quit   key.Binding
	width  int
	height int
}

func NewHost(widget Model, background tea.Model) Host {
	return Host{
		Widget:     widget,
		Background: background,
		quit:       widget.keys.Quit,
		width:      defaultWidth,
		height:     defaultHeight,
	}
}

func (h Host) Init() tea.Cmd {
	return tea.Batch(h.Background.Init(), h.Widget.Init())
}

func (h Host) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width, h.height = msg.Width, msg.Height

	case tea.KeyMsg:
		if key.Matches(msg, h.quit) {
			return h, tea.Quit
		}
		if h.Widget.Open() || key.Matches(msg, h.Widget.keys.Toggle) {
			return h.updateWidget(msg)
		}
		var cmd tea.Cmd
		h.Background, cmd = h.Background.Update(msg)
		return h, cmd
	}

	var cmd tea.Cmd
	h.Background, cmd = h.Background.Update(msg)
	cmds = append(cmds, cmd)
	next, cmd := h.updateWidget(msg)
	cmds = append(cmds, cmd)
	return next, tea.Batch(cmds...)
}

func (h Host) updateWidget(msg tea.Msg) (Host, tea.Cmd) {
	next, cmd := h.Widget.Update(msg)
	if w, ok := next.(Model); ok {
		h.Widget = w
	}
	return h, cmd
}

func (h Host) View() string {
	bg := lipgloss.Place(h.width, h.height, lipgloss.Left, lipgloss.Top, h.Background.View())

	x, y := overlay.Right, overlay.Bottom
	pos := h.Widget.Position()
	if pos.Left() {
		x = overlay.Left
	}
	if pos.Top() {
		y = overlay.Top
	}
	return overlay.New(h.Widget, staticView(bg), x, y, 0, 0).View()
}

// staticView adapts pre-rendered text to tea.Model for composition.
type staticView string

func (s staticView) Init() tea.Cmd                       { return nil }
func (s staticView) Update(tea.Msg) (tea.Model, tea.Cmd) { return s, nil }
func (s staticView) View() string                        { return string(s) }

// Page is a minimal host view: a title and a few lines of body text.
type Page struct {
	Title string
	Body  []string
	style lipgloss.Style
}

func NewPage(title string, body ...string) Page {
	return Page{
		Title: title,
		Body:  body,
		style: lipgloss.NewStyle().Padding(1, 2),
	}
}

func (p Page) Init() tea.Cmd                       { return nil }
func (p Page) Update(tea.Msg) (tea.Model, tea.Cmd) { return p, nil }

func (p Page) View() string {
	title := lipgloss.NewStyle().Bold(true).Render(p.Title)
	lines := append([]string{title, ""}, p.Body...)
	return p.style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
