package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "CHATWIDGET"

// NewViper returns a viper instance with every key defaulted, environment
// variables bound (CHATWIDGET_API_KEY, CHATWIDGET_USER_ID, ...) and, when found,
// the config file read. An explicit configFile must exist.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", configFile)
		}
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("config: loaded")
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range searchPaths() {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "config: read")
		}
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("config: loaded")
	}
	return v, nil
}

func searchPaths() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "chatwidget"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "chatwidget"), filepath.Join(home, ".chatwidget"))
	}
	return append(dirs, ".")
}

func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("user.id", d.User.ID)
	v.SetDefault("user.name", d.User.Name)
	v.SetDefault("user.avatar", d.User.Avatar)
	v.SetDefault("user.email", d.User.Email)
	v.SetDefault("chatbot-id", d.ChatbotID)
	v.SetDefault("api-key", d.APIKey)
	v.SetDefault("api-endpoint", d.APIEndpoint)
	v.SetDefault("position", string(d.Position))
	v.SetDefault("primary-color", d.PrimaryColor)
	v.SetDefault("secondary-color", d.SecondaryColor)
	v.SetDefault("bot-avatar", d.BotAvatar)
	v.SetDefault("user-avatar", d.UserAvatar)
	v.SetDefault("title", d.Title)
	v.SetDefault("welcome-message", d.WelcomeMessage)
	v.SetDefault("markdown", d.Markdown)
	v.SetDefault("initial-messages", d.InitialMessages)
	v.SetDefault("ownership", string(d.Ownership))
	v.SetDefault("save.sqlite", d.Save.SQLite)
	v.SetDefault("save.redis.addr", d.Save.Redis.Addr)
	v.SetDefault("save.redis.stream", d.Save.Redis.Stream)
}

// Load decodes settings from v. It does not validate.
func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errors.Wrap(err, "config: decode")
	}
	s.Position = Position(strings.ToLower(strings.TrimSpace(string(s.Position))))
	return s, nil
}
