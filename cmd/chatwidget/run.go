package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/chatwidget/pkg/config"
	"github.com/go-go-golems/chatwidget/pkg/savehook"
	"github.com/go-go-golems/chatwidget/pkg/ui"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:         "run",
		Short:       "Mount the chat widget over a placeholder host view",
		Annotations: map[string]string{tuiAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}
			if isatty.IsTerminal(os.Stdin.Fd()) {
				if err := ui.RunSetup(&s); err != nil {
					return err
				}
			}
			if err := s.Validate(); err != nil {
				return err
			}
			return runWidget(cmd.Context(), s,
				ui.NewPage("chatwidget",
					"This is the host program. The chat widget floats in the "+string(s.Position)+" corner.",
					"",
					"ctrl+o  open or close the chat",
					"ctrl+c  quit",
				))
		},
	}
}

// runWidget runs the widget over background until the user quits or ctx is
// cancelled.
func runWidget(ctx context.Context, s config.Settings, background tea.Model, extra ...savehook.Sink) error {
	ws, err := newWidgetSession(s, extra...)
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Close(); err != nil {
			log.Warn().Err(err).Msg("closing save sinks")
		}
	}()

	log.Info().
		Str("endpoint", s.APIEndpoint).
		Str("ownership", string(ws.Ownership())).
		Str("echo", ws.Policy().String()).
		Msg("mounting widget")

	widget := ui.New(ctx, ws.Session, ui.OptionsFromSettings(s))
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		programOpts = append(programOpts, tea.WithAltScreen())
	} else {
		programOpts = append(programOpts, tea.WithOutput(os.Stderr))
	}

	_, err = tea.NewProgram(ui.NewHost(widget, background), programOpts...).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run widget")
	}
	if ws.owner != nil {
		log.Info().Int("entries", len(ws.owner.Get())).Msg("conversation handed back to owner")
	}
	return nil
}
