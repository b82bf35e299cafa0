package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/devbot"
	"github.com/go-go-golems/chatwidget/pkg/savehook"
	"github.com/go-go-golems/chatwidget/pkg/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	demoAPIKey    = "demo-key"
	demoChatbotID = "demo"
)

func newDemoCmd(opts *rootOptions) *cobra.Command {
	flags := &botFlags{}
	cmd := &cobra.Command{
		Use:         "demo",
		Short:       "Start the development bot and mount the widget against it",
		Annotations: map[string]string{tuiAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", flags.addr)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", flags.addr)
			}
			s.APIEndpoint = fmt.Sprintf("http://%s/chat", ln.Addr())
			s.APIKey = demoAPIKey
			if s.ChatbotID == "" {
				s.ChatbotID = demoChatbotID
			}
			if err := s.Validate(); err != nil {
				_ = ln.Close()
				return err
			}

			hub := savehook.NewHub()
			h := devbot.New(devbot.Settings{APIKey: demoAPIKey, BotIDs: flags.botIDs, Delay: flags.delay}, nil)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return serve(egCtx, ln, devbot.NewRouter(h, hub))
			})
			eg.Go(func() error {
				defer cancel()
				page := ui.NewPage("chatwidget demo",
					"The development bot listens on "+ln.Addr().String()+".",
					"Saved exchanges stream to ws://"+ln.Addr().String()+"/ws/exchanges.",
					"",
					"ctrl+o  open or close the chat",
					"ctrl+c  quit",
				)
				return runWidget(egCtx, s, page, hub)
			})
			return eg.Wait()
		},
	}
	flags.register(cmd, "127.0.0.1:0", 600*time.Millisecond)
	return cmd
}
