package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the widget's styles. Only the two configured colors vary; the
// rest of the palette is fixed.
type Theme struct {
	Button      lipgloss.Style
	ButtonOpen  lipgloss.Style
	Panel       lipgloss.Style
	Header      lipgloss.Style
	HeaderHint  lipgloss.Style
	UserBubble  lipgloss.Style
	BotBubble   lipgloss.Style
	Outgoing    lipgloss.Style
	Avatar      lipgloss.Style
	Timestamp   lipgloss.Style
	Welcome     lipgloss.Style
	Status      lipgloss.Style
	InputPrompt lipgloss.Style
	InputLocked lipgloss.Style
	Spinner     lipgloss.Style
}

var (
	mutedColor = lipgloss.Color("245")
	textDark   = lipgloss.Color("#111827")
	textLight  = lipgloss.Color("#FFFFFF")
)

// NewTheme builds styles from the primary (accents, user bubbles) and
// secondary (bot bubbles) colors. Empty colors fall back to the defaults.
func NewTheme(primary, secondary string) Theme {
	if strings.TrimSpace(primary) == "" {
		primary = "#4F46E5"
	}
	if strings.TrimSpace(secondary) == "" {
		secondary = "#F3F4F6"
	}
	p := lipgloss.Color(primary)
	s := lipgloss.Color(secondary)

	return Theme{
		Button:      lipgloss.NewStyle().Bold(true).Foreground(textLight).Background(p).Padding(0, 2),
		ButtonOpen:  lipgloss.NewStyle().Bold(true).Foreground(p).Background(s).Padding(0, 2),
		Panel:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p).Padding(0, 1),
		Header:      lipgloss.NewStyle().Bold(true).Foreground(textLight).Background(p).Padding(0, 1),
		HeaderHint:  lipgloss.NewStyle().Foreground(mutedColor),
		UserBubble:  lipgloss.NewStyle().Foreground(textLight).Background(p).Padding(0, 1),
		BotBubble:   lipgloss.NewStyle().Foreground(textDark).Background(s).Padding(0, 1),
		Outgoing:    lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Padding(0, 1),
		Avatar:      lipgloss.NewStyle().Bold(true).Foreground(p),
		Timestamp:   lipgloss.NewStyle().Foreground(mutedColor),
		Welcome:     lipgloss.NewStyle().Foreground(textDark).Background(s).Italic(true).Padding(0, 1),
		Status:      lipgloss.NewStyle().Foreground(mutedColor).Italic(true),
		InputPrompt: lipgloss.NewStyle().Foreground(p).Bold(true),
		InputLocked: lipgloss.NewStyle().Foreground(mutedColor),
		Spinner:     lipgloss.NewStyle().Foreground(p).Bold(true),
	}
}

// avatarLabel turns an avatar reference into a short label. Image URLs cannot
// be drawn in a terminal, so they fall back to the initials of name.
func avatarLabel(avatar, name string) string {
	avatar = strings.TrimSpace(avatar)
	if avatar != "" && !strings.Contains(avatar, "://") {
		return firstRunes(avatar, 2)
	}
	var initials []string
	for _, f := range strings.Fields(name) {
		initials = append(initials, firstRunes(f, 1))
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return strings.ToUpper(strings.Join(initials, ""))
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
