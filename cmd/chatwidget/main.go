package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/chatwidget/pkg/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const tuiAnnotation = "tui"

type rootOptions struct {
	configFile string
	logLevel   string
	logFile    string

	v        *viper.Viper
	closeLog func() error
}

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"api-endpoint":      "api-endpoint",
	"api-key":           "api-key",
	"chatbot-id":        "chatbot-id",
	"user-id":           "user.id",
	"user-name":         "user.name",
	"ownership":         "ownership",
	"position":          "position",
	"initial-messages":  "initial-messages",
	"markdown":          "markdown",
	"save-sqlite":       "save.sqlite",
	"save-redis-addr":   "save.redis.addr",
	"save-redis-stream": "save.redis.stream",
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "chatwidget",
		Short:         "chatwidget is a floating chat panel for terminal programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := initLogger(opts.logLevel, opts.logFile, cmd.Annotations[tuiAnnotation] == "true")
			if err != nil {
				return err
			}
			opts.closeLog = closeLog

			v, err := config.NewViper(opts.configFile)
			if err != nil {
				return err
			}
			for flag, key := range flagKeys {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return errors.Wrapf(err, "bind --%s", flag)
				}
			}
			opts.v = v
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/chatwidget/config.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&opts.logFile, "log-file", "", "log file; the TUI commands default to $TMPDIR/chatwidget.log")

	pf.String("api-endpoint", config.DefaultEndpoint, "chat endpoint the widget posts to")
	pf.String("api-key", "", "bearer credential sent with every request")
	pf.String("chatbot-id", "", "bot identifier sent as the Botid query parameter")
	pf.String("user-id", "guest", "user id sent with every message")
	pf.String("user-name", "Guest", "user display name")
	pf.String("ownership", "internal", "conversation ownership: internal or external")
	pf.String("position", string(config.BottomRight), "widget corner: bottom-right, bottom-left, top-right, top-left")
	pf.String("initial-messages", "", "YAML transcript to seed the conversation with")
	pf.Bool("markdown", false, "render bot replies as markdown")
	pf.String("save-sqlite", "", "append saved exchanges to this SQLite file")
	pf.String("save-redis-addr", "", "publish saved exchanges to this Redis server")
	pf.String("save-redis-stream", "chatwidget.exchanges", "Redis stream for saved exchanges")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newAskCmd(opts),
		newServeBotCmd(opts),
		newDemoCmd(opts),
		newHistoryCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) settings() (config.Settings, error) {
	if o.v == nil {
		return config.Settings{}, errors.New("configuration not loaded")
	}
	return config.Load(o.v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	cobra.CheckErr(err)
}
