package ui

import (
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/go-go-golems/chatwidget/pkg/config"
	"github.com/pkg/errors"
)

func required(field string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return errors.Errorf("%s is required", field)
		}
		return nil
	}
}

// SetupForm asks for the connection settings that are still empty. It returns
// nil when nothing is missing.
func SetupForm(s *config.Settings) *huh.Form {
	missing := s.Missing()
	if len(missing) == 0 {
		return nil
	}

	var fields []huh.Field
	for _, k := range missing {
		switch k {
		case "user.id":
			fields = append(fields, huh.NewInput().
				Title("User id").
				Description("Sent as userId with every message").
				Value(&s.User.ID).
				Validate(required("user id")))
		case "chatbot-id":
			fields = append(fields, huh.NewInput().
				Title("Chatbot id").
				Value(&s.ChatbotID).
				Validate(required("chatbot id")))
		case "api-key":
			fields = append(fields, huh.NewInput().
				Title("API key").
				EchoMode(huh.EchoModePassword).
				Value(&s.APIKey).
				Validate(required("api key")))
		}
	}

	return huh.NewForm(huh.NewGroup(fields...).Title(s.Title)).WithTheme(huh.ThemeCharm())
}

// RunSetup fills in missing settings interactively.
func RunSetup(s *config.Settings) error {
	form := SetupForm(s)
	if form == nil {
		return nil
	}
	if err := form.Run(); err != nil {
		return errors.Wrap(err, "setup form")
	}
	return nil
}
