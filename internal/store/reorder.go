package store

import (
	"sort"

	"tiledash/internal/model"
)

// GroupOrder returns each distinct group value in the order of its first
// occurrence in tiles.
func GroupOrder(tiles []model.Tile) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, t := range tiles {
		if _, ok := seen[t.Group]; ok {
			continue
		}
		seen[t.Group] = struct{}{}
		out = append(out, t.Group)
	}
	return out
}

// GroupMembers returns the indexes of the tiles in group, in sequence order.
func GroupMembers(tiles []model.Tile, group string) []int {
	var out []int
	for i, t := range tiles {
		if t.Group == group {
			out = append(out, i)
		}
	}
	return out
}

// Section is one rendered group: its name and the sequence indexes of its tiles.
type Section struct {
	Group   string
	Indexes []int
}

// Sections groups tiles for display, in group order.
func Sections(tiles []model.Tile) []Section {
	order := GroupOrder(tiles)
	pos := make(map[string]int, len(order))
	out := make([]Section, len(order))
	for i, g := range order {
		pos[g] = i
		out[i].Group = g
	}
	for i, t := range tiles {
		s := &out[pos[t.Group]]
		s.Indexes = append(s.Indexes, i)
	}
	return out
}

// SortByGroupRank returns tiles re-sorted by the rank of their group in order.
// Groups missing from order rank after every listed group. Ties keep their
// original relative position.
func SortByGroupRank(tiles []model.Tile, order []string) []model.Tile {
	rank := make(map[string]int, len(order))
	for i, g := range order {
		if _, ok := rank[g]; !ok {
			rank[g] = i
		}
	}
	rankOf := func(g string) int {
		if r, ok := rank[g]; ok {
			return r
		}
		return len(order)
	}

	idx := make([]int, len(tiles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := rankOf(tiles[idx[a]].Group), rankOf(tiles[idx[b]].Group)
		if ra != rb {
			return ra < rb
		}
		return idx[a] < idx[b]
	})

	out := make([]model.Tile, len(tiles))
	for i, src := range idx {
		out[i] = tiles[src]
	}
	return out
}
