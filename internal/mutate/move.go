package mutate

import (
	"tiledash/internal/model"
	"tiledash/internal/store"
)

// Swap exchanges tiles i and j in place. Out-of-range indexes are a no-op (false).
func Swap(tiles []model.Tile, i, j int) bool {
	if i < 0 || j < 0 || i >= len(tiles) || j >= len(tiles) {
		return false
	}
	tiles[i], tiles[j] = tiles[j], tiles[i]
	return true
}

// MoveTile swaps the tile at index with its neighbour in direction dir (-1 or +1).
// Moving off either end or across a group boundary is a no-op.
func MoveTile(tiles []model.Tile, index, dir int) bool {
	if dir != -1 && dir != 1 {
		return false
	}
	if index < 0 || index >= len(tiles) {
		return false
	}
	next := index + dir
	if next < 0 || next >= len(tiles) {
		return false
	}
	if tiles[index].Group != tiles[next].Group {
		return false
	}
	return Swap(tiles, index, next)
}

// MoveGroup swaps key with its neighbour in order (dir -1 = earlier, +1 = later)
// and re-sorts tiles by the resulting group rank. It returns tiles unchanged and
// false when key is not in order or already at the edge.
func MoveGroup(tiles []model.Tile, key string, dir int, order []string) ([]model.Tile, bool) {
	if dir != -1 && dir != 1 {
		return tiles, false
	}
	cur := -1
	for i, g := range order {
		if g == key {
			cur = i
			break
		}
	}
	if cur < 0 {
		return tiles, false
	}
	next := cur + dir
	if next < 0 || next >= len(order) {
		return tiles, false
	}
	newOrder := append([]string(nil), order...)
	newOrder[cur], newOrder[next] = newOrder[next], newOrder[cur]
	return store.SortByGroupRank(tiles, newOrder), true
}
