package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-go-golems/chatwidget/pkg/session"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
user:
  id: u1
  name: Ada
chatbot-id: bot-1
api-key: secret
position: Top-Left
save:
  sqlite: /tmp/x.db
`)
	v, err := NewViper(path)
	require.NoError(t, err)
	s, err := Load(v)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	require.Equal(t, session.User{ID: "u1", Name: "Ada"}, s.User)
	require.Equal(t, "bot-1", s.ChatbotID)
	require.Equal(t, TopLeft, s.Position)
	require.True(t, s.Position.Top())
	require.True(t, s.Position.Left())
	require.Equal(t, DefaultEndpoint, s.APIEndpoint)
	require.Equal(t, session.OwnershipInternal, s.Ownership)
	require.Equal(t, "chatwidget.exchanges", s.Save.Redis.Stream)
	require.True(t, s.Save.Enabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "chatbot-id: from-file\napi-key: k\n")
	t.Setenv("CHATWIDGET_CHATBOT_ID", "from-env")
	t.Setenv("CHATWIDGET_USER_ID", "env-user")

	v, err := NewViper(path)
	require.NoError(t, err)
	s, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "from-env", s.ChatbotID)
	require.Equal(t, "env-user", s.User.ID)
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.ChatbotID = "b"
	valid.APIKey = "k"
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Settings){
		"missing user":       func(s *Settings) { s.User.ID = "" },
		"missing bot":        func(s *Settings) { s.ChatbotID = " " },
		"missing key":        func(s *Settings) { s.APIKey = "" },
		"bad scheme":         func(s *Settings) { s.APIEndpoint = "ftp://x" },
		"bad position":       func(s *Settings) { s.Position = "middle" },
		"bad ownership":      func(s *Settings) { s.Ownership = "shared" },
		"seed with external": func(s *Settings) { s.Ownership = session.OwnershipExternal; s.InitialMessages = "seed.yaml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			require.Error(t, s.Validate())
		})
	}
}

func TestMissing(t *testing.T) {
	s := Defaults()
	require.Equal(t, []string{"chatbot-id", "api-key"}, s.Missing())
}
