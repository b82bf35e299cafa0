package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyMap struct {
	Toggle key.Binding
	Submit key.Binding
	Close  key.Binding
	Copy   key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(key.WithKeys("ctrl+o", "f2"), key.WithHelp("ctrl+o", "chat")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Copy:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy reply")),
		Up:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
		Down:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// isModifiedEnter reports whether msg is enter with a modifier. Terminals
// deliver shift+enter and alt+enter as enter with Alt set or as a distinct
// key string; neither submits, whatever Submit is bound to.
func isModifiedEnter(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnter && (msg.Alt || msg.String() != "enter")
}

func (m Model) helpLine() string {
	var parts []string
	for _, b := range []key.Binding{m.keys.Submit, m.keys.Close, m.keys.Copy} {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
