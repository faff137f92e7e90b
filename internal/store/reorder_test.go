package store

import (
	"testing"

	"tiledash/internal/model"

	"github.com/google/go-cmp/cmp"
)

func groupsOf(gs ...string) []model.Tile {
	out := make([]model.Tile, len(gs))
	for i, g := range gs {
		out[i] = model.Tile{Name: g + string(rune('0'+i)), Group: g}
	}
	return out
}

func TestGroupOrder_FirstOccurrence(t *testing.T) {
	tiles := groupsOf("B", "A", "B", "Others", "A")
	if diff := cmp.Diff([]string{"B", "A", "Others"}, GroupOrder(tiles)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if got := GroupOrder(nil); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestSections(t *testing.T) {
	tiles := groupsOf("B", "A", "B")
	got := Sections(tiles)
	want := []Section{{Group: "B", Indexes: []int{0, 2}}, {Group: "A", Indexes: []int{1}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestSortByGroupRank_Stable(t *testing.T) {
	tiles := groupsOf("A", "B", "A", "C", "B")
	got := SortByGroupRank(tiles, []string{"B", "A"})
	var names []string
	for _, t := range got {
		names = append(names, t.Name)
	}
	if diff := cmp.Diff([]string{"B1", "B4", "A0", "A2", "C3"}, names); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
