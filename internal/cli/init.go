package cli

import (
	"os"

	"tiledash/internal/store"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the board (idempotent)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, statErr := os.Stat(dir)
			created := os.IsNotExist(statErr)

			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			if use && app.Board != "" {
				cfg, err := store.LoadConfig()
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.CurrentBoard = app.Board
				if err := store.SaveConfig(cfg); err != nil {
					return writeErr(cmd, err)
				}
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"dir":     dir,
					"board":   app.Board,
					"created": created,
					"tiles":   b.Len(),
				},
			})
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "Also make this the current board")
	return cmd
}
