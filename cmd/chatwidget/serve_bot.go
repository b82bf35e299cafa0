package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-go-golems/chatwidget/pkg/devbot"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type botFlags struct {
	addr   string
	botIDs []string
	delay  time.Duration
}

func (f *botFlags) register(cmd *cobra.Command, defaultAddr string, defaultDelay time.Duration) {
	cmd.Flags().StringVar(&f.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringSliceVar(&f.botIDs, "bot-id", nil, "accepted Botid values (default: any)")
	cmd.Flags().DurationVar(&f.delay, "delay", defaultDelay, "artificial delay before each answer")
}

func newServeBotCmd(opts *rootOptions) *cobra.Command {
	flags := &botFlags{}
	cmd := &cobra.Command{
		Use:   "serve-bot",
		Short: "Run a development bot that speaks the widget's wire protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", flags.addr)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", flags.addr)
			}
			h := devbot.New(devbot.Settings{APIKey: s.APIKey, BotIDs: flags.botIDs, Delay: flags.delay}, nil)
			return serve(cmd.Context(), ln, devbot.NewRouter(h, nil))
		},
	}
	flags.register(cmd, ":8089", 0)
	return cmd
}

// serve runs handler on ln until ctx is cancelled, then shuts down.
func serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("starting dev bot")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "dev bot")
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("dev bot shutdown error")
			return err
		}
		log.Info().Msg("dev bot stopped")
		return nil
	})
	return eg.Wait()
}
