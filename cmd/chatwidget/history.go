package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/chatwidget/pkg/savehook"
	"github.com/go-go-golems/chatwidget/pkg/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		userID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:         "history",
		Short:       "Browse exchanges saved by the SQLite save sink",
		Annotations: map[string]string{tuiAnnotation: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.settings()
			if err != nil {
				return err
			}
			if s.Save.SQLite == "" {
				return errors.New("no database: pass --save-sqlite or set save.sqlite")
			}
			exchanges, err := loadExchanges(cmd.Context(), s.Save.SQLite, savehook.ExchangeQuery{UserID: userID, Limit: limit})
			if err != nil {
				return err
			}
			if len(exchanges) == 0 {
				return errors.Errorf("no saved exchanges in %s", s.Save.SQLite)
			}

			programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(cmd.Context())}
			_, err = tea.NewProgram(ui.NewHistory(exchanges), programOpts...).Run()
			if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return errors.Wrap(err, "run history browser")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "only show exchanges of this user id")
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum number of exchanges to load")
	return cmd
}

func loadExchanges(ctx context.Context, path string, q savehook.ExchangeQuery) ([]savehook.StoredExchange, error) {
	expanded, dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(expanded); err != nil {
		return nil, errors.Wrap(err, "open saved exchanges")
	}
	store, err := savehook.NewSQLiteSink(dsn)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.List(ctx, q)
}
