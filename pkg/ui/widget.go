// Package ui renders a chat session as a bubbletea component: a toggle button
// and a floating panel with the transcript, an input line and a pending
// indicator. The component never decides anything about the exchange itself;
// it turns key presses into session events and carries out the effects the
// session hands back.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/chatwidget/pkg/config"
	"github.com/go-go-golems/chatwidget/pkg/conversation"
	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/rs/zerolog/log"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	maxPanelWidth = 56
	maxPanelRows  = 22
	minPanelWidth = 24
	minPanelRows  = 8
	// border, header, input and help lines
	panelChromeRows = 5
	// border and horizontal padding
	panelChromeCols = 4
)

// SettledMsg carries the outcome of a remote call back into the event loop.
type SettledMsg struct {
	session.Settled
}

type copiedMsg struct {
	err error
}

// Options are the presentation settings of a widget.
type Options struct {
	Title          string
	WelcomeMessage string
	Position       config.Position
	PrimaryColor   string
	SecondaryColor string
	UserAvatar     string
	BotAvatar      string
	BotName        string
	Markdown       bool
	Keys           KeyMap
}

func OptionsFromSettings(s config.Settings) Options {
	return Options{
		Title:          s.Title,
		WelcomeMessage: s.WelcomeMessage,
		Position:       s.Position,
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		UserAvatar:     s.UserAvatar,
		BotAvatar:      s.BotAvatar,
		Markdown:       s.Markdown,
		Keys:           DefaultKeyMap(),
	}
}

// Model is the widget. It shares the session by pointer, so copies of a Model
// made by the bubbletea loop all drive the same conversation.
type Model struct {
	ctx      context.Context
	sess     *session.Session
	opts     Options
	keys     KeyMap
	theme    Theme
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int

	// inflight is the request the loop is waiting on, nil when idle.
	inflight *session.SendRequest
	status   string
}

// New builds a widget over sess. ctx bounds every remote call the widget
// starts.
func New(ctx context.Context, sess *session.Session, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "Chat"
	}
	if opts.BotName == "" {
		opts.BotName = "Assistant"
	}
	if !opts.Position.Valid() {
		opts.Position = config.BottomRight
	}
	if len(opts.Keys.Submit.Keys()) == 0 {
		opts.Keys = DefaultKeyMap()
	}

	theme := NewTheme(opts.PrimaryColor, opts.SecondaryColor)

	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := Model{
		ctx:      ctx,
		sess:     sess,
		opts:     opts,
		keys:     opts.Keys,
		theme:    theme,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Session() *session.Session { return m.sess }
func (m Model) Open() bool                { return m.sess.State().Open }
func (m Model) Position() config.Position { return m.opts.Position }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SettledMsg:
		// a settle for anything but the request in flight changes nothing
		if m.inflight == nil || msg.Question != m.inflight.Request.Message {
			log.Debug().Str("question", msg.Question).Msg("ui: dropping stale settle")
			return m, nil
		}
		m.inflight = nil
		cmds := m.apply(m.sess.Dispatch(msg.Settled))
		return m, tea.Batch(cmds...)

	case copiedMsg:
		if msg.err != nil {
			log.Warn().Err(msg.err).Msg("ui: copy to clipboard failed")
			m.status = "copy failed"
		} else {
			m.status = "reply copied"
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sess.State().Pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Toggle) {
		m.status = ""
		cmds := m.apply(m.sess.Toggle())
		return m, tea.Batch(cmds...)
	}
	if !m.sess.State().Open {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		cmds := m.apply(m.sess.Toggle())
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Copy):
		text, ok := m.lastReply()
		if !ok {
			return m, nil
		}
		return m, copyCmd(text)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case isModifiedEnter(msg):
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.status = ""
		cmds := m.apply(m.sess.Submit())
		return m, tea.Batch(cmds...)
	}

	if m.sess.State().Pending {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.apply(m.sess.SetInput(m.input.Value()))
	return m, cmd
}

// apply carries out host effects and brings the input and transcript in line
// with the session state.
func (m *Model) apply(effects []session.Effect) []tea.Cmd {
	var cmds []tea.Cmd
	scroll := false
	for _, e := range effects {
		switch e := e.(type) {
		case session.FocusInput:
			cmds = append(cmds, m.input.Focus())
		case session.ScrollToLatest:
			scroll = true
		case session.SendRequest:
			req := e
			m.inflight = &req
			cmds = append(cmds, m.send(req), m.spinner.Tick)
		}
	}

	st := m.sess.State()
	if m.input.Value() != st.Input {
		m.input.SetValue(st.Input)
		m.input.CursorEnd()
	}
	if st.Pending || !st.Open {
		m.input.Blur()
	}

	m.refresh()
	if scroll {
		m.viewport.GotoBottom()
	}
	return cmds
}

func (m Model) send(req session.SendRequest) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		return SettledMsg{Settled: sess.Perform(ctx, req)}
	}
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}

func (m Model) lastReply() (string, bool) {
	msgs := m.sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsUser() {
			return msgs[i].Text, true
		}
	}
	return "", false
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	pw := clamp(width-2, minPanelWidth, maxPanelWidth)
	ph := clamp(height-2, minPanelRows, maxPanelRows)
	m.viewport.Width = pw - panelChromeCols
	m.viewport.Height = ph - panelChromeRows
	m.input.Width = m.viewport.Width - lipgloss.Width(m.input.Prompt) - 1

	m.renderer = nil
	if m.opts.Markdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(m.bubbleWidth()-2),
		)
		if err != nil {
			log.Warn().Err(err).Msg("ui: markdown renderer unavailable")
		} else {
			m.renderer = r
		}
	}
	m.refresh()
}

func (m Model) bubbleWidth() int {
	return max(m.viewport.Width*3/4, 10)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
}

func (m Model) transcript() string {
	msgs := m.sess.Messages()
	st := m.sess.State()

	var blocks []string
	if len(msgs) == 0 && m.opts.WelcomeMessage != "" {
		blocks = append(blocks, m.renderBubble(false, m.botLabel(""), "", m.theme.Welcome, m.opts.WelcomeMessage))
	}
	for _, msg := range msgs {
		blocks = append(blocks, m.renderMessage(msg))
	}
	if st.Pending {
		if m.sess.Policy() == session.EchoOnSettle && st.Outgoing != "" {
			blocks = append(blocks, m.renderBubble(true, m.userLabel(""), "", m.theme.Outgoing, st.Outgoing))
		}
		blocks = append(blocks, m.renderBubble(false, m.botLabel(""), "", m.theme.BotBubble, m.spinner.View()+" typing"))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg conversation.Message) string {
	stamp := ""
	if !msg.Timestamp.IsZero() {
		stamp = msg.Timestamp.Local().Format("15:04")
	}
	if msg.IsUser() {
		return m.renderBubble(true, m.userLabel(msg.Avatar), stamp, m.theme.UserBubble, msg.Text)
	}
	text := msg.Text
	if m.renderer != nil {
		if out, err := m.renderer.Render(text); err == nil {
			text = strings.Trim(out, "\n")
		}
	}
	return m.renderBubble(false, m.botLabel(msg.Avatar), stamp, m.theme.BotBubble, text)
}

func (m Model) renderBubble(user bool, label, stamp string, style lipgloss.Style, text string) string {
	bw := m.bubbleWidth()
	w := min(lipgloss.Width(text)+style.GetHorizontalFrameSize(), bw)
	bubble := style.Width(w).Render(text)

	head := m.theme.Avatar.Render(label)
	if stamp != "" {
		head += " " + m.theme.Timestamp.Render(stamp)
	}

	pos := lipgloss.Left
	if user {
		pos = lipgloss.Right
	}
	block := lipgloss.JoinVertical(pos, head, bubble)
	return lipgloss.PlaceHorizontal(m.viewport.Width, pos, block)
}

func (m Model) userLabel(avatar string) string {
	if avatar == "" {
		avatar = m.opts.UserAvatar
	}
	return avatarLabel(avatar, m.sess.User().Name)
}

func (m Model) botLabel(avatar string) string {
	if avatar == "" {
		avatar = m.opts.BotAvatar
	}
	return avatarLabel(avatar, m.opts.BotName)
}

func (m Model) View() string {
	st := m.sess.State()
	if !st.Open {
		return m.theme.Button.Render("💬 " + m.opts.Title)
	}

	inner := m.viewport.Width
	header := m.theme.Header.Width(inner).Render(m.opts.Title)

	var inputLine string
	if st.Pending {
		inputLine = m.theme.InputLocked.Render(fmt.Sprintf("%s waiting for a reply", m.spinner.View()))
	} else {
		inputLine = m.input.View()
	}

	help := m.theme.HeaderHint.Render(m.helpLine())
	if m.status != "" {
		help = m.theme.Status.Render(m.status)
	}

	panel := m.theme.Panel.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		m.viewport.View(),
		inputLine,
		help,
	))
	button := m.theme.ButtonOpen.Render("✕ close")

	align := lipgloss.Right
	if m.opts.Position.Left() {
		align = lipgloss.Left
	}
	if m.opts.Position.Top() {
		return lipgloss.JoinVertical(align, button, panel)
	}
	return lipgloss.JoinVertical(align, panel, button)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
