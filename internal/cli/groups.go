package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newGroupsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "Group commands (groups exist only through their tiles)",
	}
	cmd.AddCommand(newGroupsListCmd(app))
	cmd.AddCommand(newGroupsMoveCmd(app))
	cmd.AddCommand(newGroupsRenameCmd(app))
	return cmd
}

type groupRow struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newGroupsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			counts := map[string]int{}
			for _, t := range b.Tiles() {
				counts[t.Group]++
			}
			rows := []groupRow{}
			for _, g := range b.GroupOrder() {
				rows = append(rows, groupRow{Name: g, Count: counts[g]})
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
}

func newGroupsMoveCmd(app *App) *cobra.Command {
	var up, down bool
	cmd := &cobra.Command{
		Use:   "move <group>",
		Short: "Move a whole group one step earlier or later",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if up == down {
				return writeErr(cmd, errors.New("provide exactly one of --up or --down"))
			}
			dir := 1
			if up {
				dir = -1
			}
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			moved, err := b.MoveGroup(cmd.Context(), args[0], dir, nil)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"moved": moved, "order": b.GroupOrder()}})
		},
	}
	cmd.Flags().BoolVar(&up, "up", false, "Move toward the top")
	cmd.Flags().BoolVar(&down, "down", false, "Move toward the bottom")
	return cmd
}

func newGroupsRenameCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a group; renaming onto an existing group merges them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			if err := b.RenameGroup(cmd.Context(), args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			b.Refresh()
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"order": b.GroupOrder()}})
		},
	}
}
