package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tiledash/internal/board"
	"tiledash/internal/model"
	"tiledash/internal/mutate"

	"github.com/spf13/cobra"
)

func newTilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tiles",
		Aliases: []string{"tile"},
		Short:   "Tile commands",
	}
	cmd.AddCommand(newTilesListCmd(app))
	cmd.AddCommand(newTilesShowCmd(app))
	cmd.AddCommand(newTilesAddCmd(app))
	cmd.AddCommand(newTilesEditCmd(app))
	cmd.AddCommand(newTilesRmCmd(app))
	cmd.AddCommand(newTilesMoveCmd(app))
	cmd.AddCommand(newTilesSwapCmd(app))
	return cmd
}

// resolveTile accepts a tile id or "#<index>".
func resolveTile(b *board.Board, ref string) (model.Tile, int, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "#") {
		i, err := strconv.Atoi(ref[1:])
		if err != nil {
			return model.Tile{}, -1, fmt.Errorf("invalid tile index: %q", ref)
		}
		tiles := b.Tiles()
		if i < 0 || i >= len(tiles) {
			return model.Tile{}, -1, mutate.NotFoundError{Kind: "tile", ID: ref}
		}
		return tiles[i], i, nil
	}
	t, i, ok := b.Find(ref)
	if !ok {
		return model.Tile{}, -1, mutate.NotFoundError{Kind: "tile", ID: ref}
	}
	return t, i, nil
}

func readUpload(path string) (*mutate.Upload, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &mutate.Upload{Data: data, Filename: path}, nil
}

func newTilesListCmd(app *App) *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tiles in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			out := []model.Tile{}
			for _, t := range b.Tiles() {
				if group != "" && t.Group != group {
					continue
				}
				out = append(out, t)
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Only tiles in this group")
	return cmd
}

func newTilesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <tile-id|#index>",
		Short: "Show one tile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()
			t, i, err := resolveTile(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t, "meta": map[string]any{"index": i}})
		},
	}
}

func newTilesAddCmd(app *App) *cobra.Command {
	var in mutate.TileInput
	var image string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tile at the end of the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			up, err := readUpload(image)
			if err != nil {
				return writeErr(cmd, err)
			}
			in.Image = up

			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			t, err := b.Save(cmd.Context(), in, "")
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&in.URL, "url", "", "URL; https:// is added when no scheme is given (required)")
	cmd.Flags().StringVar(&in.Group, "group", "", "Group (default: Others)")
	cmd.Flags().StringVar(&image, "image", "", "Path to an image file to embed")
	return cmd
}

func newTilesEditCmd(app *App) *cobra.Command {
	var name, rawURL, group, image string
	cmd := &cobra.Command{
		Use:   "edit <tile-id|#index>",
		Short: "Edit a tile in place; unset flags keep the current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			cur, _, err := resolveTile(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			in := mutate.TileInput{Name: cur.Name, URL: cur.URL, Group: cur.Group}
			if cmd.Flags().Changed("name") {
				in.Name = name
			}
			if cmd.Flags().Changed("url") {
				in.URL = rawURL
			}
			if cmd.Flags().Changed("group") {
				in.Group = group
			}
			if in.Image, err = readUpload(image); err != nil {
				return writeErr(cmd, err)
			}

			t, err := b.Save(cmd.Context(), in, cur.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&rawURL, "url", "", "URL")
	cmd.Flags().StringVar(&group, "group", "", "Group (empty: Others)")
	cmd.Flags().StringVar(&image, "image", "", "Path to an image file to embed")
	return cmd
}

func newTilesRmCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <tile-id|#index>",
		Aliases: []string{"delete"},
		Short:   "Delete a tile",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, confirmRequiredError{action: "delete"})
			}
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			t, _, err := resolveTile(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := b.Delete(cmd.Context(), t.ID); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"deleted": t.ID}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}

func newTilesMoveCmd(app *App) *cobra.Command {
	var left, right bool
	cmd := &cobra.Command{
		Use:   "move <tile-id|#index>",
		Short: "Move a tile one step within its group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if left == right {
				return writeErr(cmd, errors.New("provide exactly one of --left or --right"))
			}
			dir := 1
			if left {
				dir = -1
			}
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()

			t, _, err := resolveTile(b, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			moved, err := b.MoveTileByID(cmd.Context(), t.ID, dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, idx, _ := b.Find(t.ID)
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": t.ID, "moved": moved, "index": idx}})
		},
	}
	cmd.Flags().BoolVar(&left, "left", false, "Move toward the start of the group")
	cmd.Flags().BoolVar(&right, "right", false, "Move toward the end of the group")
	return cmd
}

func newTilesSwapCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "swap <index> <index>",
		Short: "Swap two positions (out of range is a no-op)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid index: %q", args[0]))
			}
			j, err := strconv.Atoi(args[1])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid index: %q", args[1]))
			}
			b, closeFn, err := openBoard(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeFn()
			swapped, err := b.Swap(cmd.Context(), i, j)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"swapped": swapped}})
		},
	}
}
