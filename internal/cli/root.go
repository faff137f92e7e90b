package cli

import (
	"context"
	"os"
	"strings"

	"tiledash/internal/board"
	"tiledash/internal/store"
	"tiledash/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	Dir        string
	Board      string
	PrettyJSON bool
	Format     string
	Verbose    bool

	log *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "tiledash",
		Short:        "Personal dashboard of shortcut tiles (CLI + TUI + web)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  tiledash

  # Scriptable commands
  tiledash tiles add --name Mail --url mail.google.com --group Work
  tiledash tiles list

  # Serve the dashboard in a browser
  tiledash web
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), app.Verbose)
		if err != nil {
			return err
		}
		app.log = log
		return nil
	}
	cmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if app.log != nil {
			_ = app.log.Sync()
		}
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("TILEDASH_DIR", ""), "Path to a board directory (overrides --board)")
	cmd.PersistentFlags().StringVar(&app.Board, "board", envOr("TILEDASH_BOARD", ""), "Board name (default: currentBoard from config.json, else 'default')")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TILEDASH_FORMAT", "json"), "Output format (json|yaml)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging to stderr")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newTilesCmd(app))
	cmd.AddCommand(newGroupsCmd(app))
	cmd.AddCommand(newBackupCmd(app))
	cmd.AddCommand(newRestoreCmd(app))
	cmd.AddCommand(newBoardsCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	dir, err := resolveDir(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	// The TUI owns the terminal; logs go to a file in the board dir instead of stderr.
	log := zap.NewNop()
	if app.Verbose {
		if l, err := newFileLogger(dir); err == nil {
			log = l
			defer func() { _ = l.Sync() }()
		}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, dir, log)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer st.Close()
	b, err := board.Open(ctx, st, log)
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(tui.Options{Board: b, Dir: dir, BoardName: app.Board, Log: log})
}

// resolveDir picks the board directory:
// 1) --dir
// 2) --board
// 3) ~/.tiledash/config.json currentBoard
// 4) the default board
func resolveDir(app *App) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	if app.Board == "" {
		if cfg, err := store.LoadConfig(); err == nil && cfg.CurrentBoard != "" {
			app.Board = cfg.CurrentBoard
		} else {
			app.Board = store.DefaultBoard
		}
	}
	d, err := store.BoardDir(app.Board)
	if err != nil {
		return "", err
	}
	app.Dir = d
	return d, nil
}

// openBoard opens the resolved board. Callers must call the returned close func.
func openBoard(cmd *cobra.Command, app *App) (*board.Board, func(), error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, dir, app.logger())
	if err != nil {
		return nil, nil, err
	}
	b, err := board.Open(ctx, st, app.logger())
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return b, func() { _ = st.Close() }, nil
}

func (app *App) logger() *zap.Logger {
	if app.log == nil {
		return zap.NewNop()
	}
	return app.log
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
