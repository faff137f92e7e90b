package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"tiledash/internal/store"

	"github.com/spf13/cobra"
)

func newBackupCmd(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write the dashboard to a JSON backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			doc, err := b.Backup()
			if err != nil {
				return writeErr(cmd, err)
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(doc)
				return err
			}
			if out == "" {
				out = store.BackupFileName(time.Now())
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return writeErr(cmd, err)
				}
			}
			if err := os.WriteFile(out, doc, 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"path": out, "tiles": b.Len()}})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path, or - for stdout (default: dashboard_backup_<time>.json)")
	return cmd
}

func newRestoreCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file|->",
		Short: "Replace the whole dashboard with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, confirmRequiredError{action: "restore"})
			}
			var doc []byte
			var err error
			if args[0] == "-" {
				doc, err = io.ReadAll(cmd.InOrStdin())
			} else {
				doc, err = os.ReadFile(args[0])
			}
			if err != nil {
				return writeErr(cmd, err)
			}

			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			n, err := b.Restore(cmd.Context(), doc)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"restored": n}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm replacing all tiles")
	return cmd
}
