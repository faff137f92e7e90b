package mutate

import (
	"strings"

	"tiledash/internal/model"
)

// RenameGroup sets the group of every tile in oldName to the trimmed newName,
// in place, without moving any tile. Renaming onto an existing group merges the
// two. It returns the number of tiles changed.
func RenameGroup(tiles []model.Tile, oldName, newName string) (int, error) {
	next := strings.TrimSpace(newName)
	if next == "" {
		return 0, ValidationError{Field: "group", Msg: "new group name is empty"}
	}
	if next == oldName {
		return 0, ValidationError{Field: "group", Msg: "new group name is unchanged"}
	}
	n := 0
	for i := range tiles {
		if tiles[i].Group == oldName {
			tiles[i].Group = next
			n++
		}
	}
	return n, nil
}
