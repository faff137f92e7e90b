package model

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultGroup is the group a tile joins when none is given.
const DefaultGroup = "Others"

// Tile is one dashboard shortcut. Group membership and group order are not
// stored anywhere else; they are derived from the order of tiles in a collection.
type Tile struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Img   string `json:"img"`
	Group string `json:"group"`
}

// NewTileID returns a fresh stable tile id.
func NewTileID() string {
	return "tile-" + uuid.NewString()
}

// NormalizeGroup trims a group name and substitutes DefaultGroup for empty input.
func NormalizeGroup(g string) string {
	g = strings.TrimSpace(g)
	if g == "" {
		return DefaultGroup
	}
	return g
}

// HasEmbeddedImage reports whether the tile image is an uploaded data URI
// rather than a favicon service URL.
func (t Tile) HasEmbeddedImage() bool {
	return strings.Contains(t.Img, "data:image")
}

// Clone returns a shallow copy of tiles (Tile holds only strings).
func Clone(tiles []Tile) []Tile {
	out := make([]Tile, len(tiles))
	copy(out, tiles)
	return out
}
