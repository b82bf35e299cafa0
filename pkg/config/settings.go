// Package config loads the widget's construction parameters.
package config

import (
	"net/url"
	"strings"

	"github.com/go-go-golems/chatwidget/pkg/savehook"
	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/pkg/errors"
)

// DefaultEndpoint is a placeholder; real deployments always override it.
const DefaultEndpoint = "https://your-api-endpoint.com/chat"

// Position is the corner the widget floats in.
type Position string

const (
	BottomRight Position = "bottom-right"
	BottomLeft  Position = "bottom-left"
	TopRight    Position = "top-right"
	TopLeft     Position = "top-left"
)

func (p Position) Valid() bool {
	switch p {
	case BottomRight, BottomLeft, TopRight, TopLeft:
		return true
	}
	return false
}

func (p Position) Top() bool  { return p == TopLeft || p == TopRight }
func (p Position) Left() bool { return p == TopLeft || p == BottomLeft }

// SaveSettings selects host-side sinks for saved exchanges.
type SaveSettings struct {
	SQLite string                 `mapstructure:"sqlite"`
	Redis  savehook.RedisSettings `mapstructure:"redis"`
}

func (s SaveSettings) Enabled() bool {
	return s.SQLite != "" || s.Redis.Addr != ""
}

// Settings are the widget's construction parameters. They do not change for
// the lifetime of a mounted widget.
type Settings struct {
	User        session.User `mapstructure:"user"`
	ChatbotID   string       `mapstructure:"chatbot-id"`
	APIKey      string       `mapstructure:"api-key"`
	APIEndpoint string       `mapstructure:"api-endpoint"`

	Position       Position `mapstructure:"position"`
	PrimaryColor   string   `mapstructure:"primary-color"`
	SecondaryColor string   `mapstructure:"secondary-color"`
	BotAvatar      string   `mapstructure:"bot-avatar"`
	UserAvatar     string   `mapstructure:"user-avatar"`
	Title          string   `mapstructure:"title"`
	WelcomeMessage string   `mapstructure:"welcome-message"`
	Markdown       bool     `mapstructure:"markdown"`

	// InitialMessages is a YAML seed transcript, internal ownership only.
	InitialMessages string            `mapstructure:"initial-messages"`
	Ownership       session.Ownership `mapstructure:"ownership"`

	Save SaveSettings `mapstructure:"save"`
}

// Defaults returns the settings every key falls back to.
func Defaults() Settings {
	return Settings{
		User:           session.User{ID: "guest", Name: "Guest"},
		APIEndpoint:    DefaultEndpoint,
		Position:       BottomRight,
		PrimaryColor:   "#4F46E5",
		SecondaryColor: "#F3F4F6",
		Title:          "Chat with us",
		WelcomeMessage: "Hi! How can I help you today?",
		Ownership:      session.OwnershipInternal,
		Save: SaveSettings{
			Redis: savehook.RedisSettings{Stream: "chatwidget.exchanges"},
		},
	}
}

// Validate checks the settings a widget cannot mount without.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.User.ID) == "" {
		return errors.New("config: user.id is required")
	}
	if strings.TrimSpace(s.ChatbotID) == "" {
		return errors.New("config: chatbot-id is required")
	}
	if strings.TrimSpace(s.APIKey) == "" {
		return errors.New("config: api-key is required")
	}
	u, err := url.Parse(s.APIEndpoint)
	if err != nil {
		return errors.Wrap(err, "config: invalid api-endpoint")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("config: api-endpoint must be http or https, got %q", s.APIEndpoint)
	}
	if !s.Position.Valid() {
		return errors.Errorf("config: unknown position %q", s.Position)
	}
	switch s.Ownership {
	case session.OwnershipInternal:
	case session.OwnershipExternal:
		if s.InitialMessages != "" {
			return errors.New("config: initial-messages only applies to internal ownership")
		}
	default:
		return errors.Errorf("config: unknown ownership %q", s.Ownership)
	}
	return nil
}

// Missing lists the required keys that are still empty, for interactive setup.
func (s Settings) Missing() []string {
	var out []string
	if strings.TrimSpace(s.User.ID) == "" {
		out = append(out, "user.id")
	}
	if strings.TrimSpace(s.ChatbotID) == "" {
		out = append(out, "chatbot-id")
	}
	if strings.TrimSpace(s.APIKey) == "" {
		out = append(out, "api-key")
	}
	return out
}
