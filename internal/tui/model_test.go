package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tiledash/internal/board"
	"tiledash/internal/model"
	"tiledash/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// newTestModel builds a model over an in-memory board seeded with "name/group" specs.
func newTestModel(t *testing.T, specs ...string) (Model, *board.Board) {
	t.Helper()
	tiles := []model.Tile{}
	for _, s := range specs {
		name, group, _ := strings.Cut(s, "/")
		tiles = append(tiles, model.Tile{
			ID:    "tile-" + strings.ToLower(name),
			Name:  name,
			URL:   "https://" + strings.ToLower(name) + ".example",
			Img:   "https://www.google.com/s2/favicons?sz=128&domain=" + strings.ToLower(name) + ".example",
			Group: group,
		})
	}
	st := &store.Store{KV: store.NewMemKV()}
	ctx := context.Background()
	if err := st.Save(ctx, tiles); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b, err := board.Open(ctx, st, nil)
	if err != nil {
		t.Fatalf("open board: %v", err)
	}
	return NewModel(Options{Board: b, Dir: t.TempDir(), BoardName: "test"}), b
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(keyMsg(k))
		m = updated.(Model)
	}
	return m
}

func names(b *board.Board) []string {
	out := []string{}
	for _, t := range b.Tiles() {
		out = append(out, t.Name)
	}
	return out
}

func TestNavigation_HL(t *testing.T) {
	m, _ := newTestModel(t, "A/G1", "B/G1", "C/G2")
	if m.Cursor() != "tile-a" {
		t.Fatalf("initial cursor=%q, want tile-a", m.Cursor())
	}
	m = press(t, m, "l", "l")
	if m.Cursor() != "tile-c" {
		t.Fatalf("after l l cursor=%q, want tile-c", m.Cursor())
	}
	m = press(t, m, "l")
	if m.Cursor() != "tile-c" {
		t.Fatalf("l at end should stay; cursor=%q", m.Cursor())
	}
	m = press(t, m, "h", "h", "h")
	if m.Cursor() != "tile-a" {
		t.Fatalf("h at start should stay; cursor=%q", m.Cursor())
	}
}

func TestNavigation_JKJumpsGroups(t *testing.T) {
	m, _ := newTestModel(t, "A/G1", "B/G1", "C/G2")
	m = press(t, m, "l", "j")
	if m.Cursor() != "tile-c" {
		t.Fatalf("j should land on the closest column of the next group; cursor=%q", m.Cursor())
	}
	m = press(t, m, "j")
	if m.Cursor() != "tile-c" {
		t.Fatalf("j in last group should stay; cursor=%q", m.Cursor())
	}
	m = press(t, m, "k")
	if m.Cursor() != "tile-a" {
		t.Fatalf("k should land on column 0 of G1; cursor=%q", m.Cursor())
	}
}

func TestMoveTileWithinGroup(t *testing.T) {
	m, b := newTestModel(t, "A/G1", "B/G1", "C/G2")

	m = press(t, m, "L")
	if diff := cmp.Diff([]string{"B", "A", "C"}, names(b)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if m.Cursor() != "tile-a" {
		t.Fatalf("cursor should follow the moved tile; got %q", m.Cursor())
	}

	// A is last in G1; moving right would cross into G2.
	m = press(t, m, "L")
	if diff := cmp.Diff([]string{"B", "A", "C"}, names(b)); diff != "" {
		t.Fatalf("group boundary crossed (-want +got):\n%s", diff)
	}
	_ = m
}

func TestMoveGroup(t *testing.T) {
	m, b := newTestModel(t, "A/G1", "B/G2", "C/G1")
	m = press(t, m, "l", "K")
	if diff := cmp.Diff([]string{"G2", "G1"}, b.GroupOrder()); diff != "" {
		t.Fatalf("group order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B", "A", "C"}, names(b)); diff != "" {
		t.Fatalf("tile order mismatch (-want +got):\n%s", diff)
	}
	if m.Cursor() != "tile-b" {
		t.Fatalf("cursor should stay on B; got %q", m.Cursor())
	}
}

func TestAddTileFlow(t *testing.T) {
	m, b := newTestModel(t, "A/Work")

	m = press(t, m, "a")
	if m.Mode() != ModeForm {
		t.Fatalf("expected form mode, got %v", m.Mode())
	}
	m = press(t, m, "Mail", "tab", "mail.google.com", "enter")
	if m.Mode() != ModeNormal {
		t.Fatalf("expected normal mode after save, got %v", m.Mode())
	}
	tiles := b.Tiles()
	if len(tiles) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(tiles))
	}
	got := tiles[1]
	if got.Name != "Mail" || got.URL != "https://mail.google.com" || got.Group != "Work" {
		t.Fatalf("unexpected tile: %+v", got)
	}
	if m.Cursor() != got.ID {
		t.Fatalf("cursor should move to the new tile")
	}
}

func TestAddTileValidationKeepsFormOpen(t *testing.T) {
	m, b := newTestModel(t)
	m = press(t, m, "a", "Only a name", "enter")
	if m.Mode() != ModeForm {
		t.Fatalf("form should stay open on validation error")
	}
	if m.form.err == "" {
		t.Fatalf("expected a form error")
	}
	if b.Len() != 0 {
		t.Fatalf("nothing should be saved")
	}
	m = press(t, m, "esc")
	if m.Mode() != ModeNormal {
		t.Fatalf("esc should close the form")
	}
}

func TestEditKeepsIDAndPosition(t *testing.T) {
	m, b := newTestModel(t, "A/G1", "B/G1")
	m = press(t, m, "e", "ctrl+u", "Alpha", "enter")
	tiles := b.Tiles()
	if tiles[0].ID != "tile-a" || tiles[0].Name != "Alpha" {
		t.Fatalf("edit should replace in place: %+v", tiles[0])
	}
	if tiles[0].URL != "https://a.example" {
		t.Fatalf("url should round-trip through the scheme-less form value; got %q", tiles[0].URL)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, b := newTestModel(t, "A/G1", "B/G1")

	m = press(t, m, "d")
	if m.Mode() != ModeConfirmDelete {
		t.Fatalf("expected confirm mode")
	}
	m = press(t, m, "n")
	if b.Len() != 2 {
		t.Fatalf("n should cancel")
	}

	m = press(t, m, "d", "y")
	if diff := cmp.Diff([]string{"B"}, names(b)); diff != "" {
		t.Fatalf("delete mismatch (-want +got):\n%s", diff)
	}
	if m.Cursor() != "tile-b" {
		t.Fatalf("cursor should fall back to a neighbour; got %q", m.Cursor())
	}
}

func TestRenameStateMachine(t *testing.T) {
	m, b := newTestModel(t, "A/Work", "B/Home", "C/Work")

	m = press(t, m, "R")
	if m.RenameState() != Renaming {
		t.Fatalf("expected Renaming")
	}
	m = press(t, m, "esc")
	if m.RenameState() != RenameIdle {
		t.Fatalf("esc should return to idle")
	}
	if diff := cmp.Diff([]string{"Work", "Home"}, b.GroupOrder()); diff != "" {
		t.Fatalf("cancelled rename changed groups:\n%s", diff)
	}

	notified := 0
	cancel := b.Subscribe(func() { notified++ })
	defer cancel()

	m = press(t, m, "R", "ctrl+u", "Office", "enter")
	if m.RenameState() != RenameIdle {
		t.Fatalf("expected idle after rename")
	}
	if diff := cmp.Diff([]string{"Office", "Home"}, b.GroupOrder()); diff != "" {
		t.Fatalf("rename mismatch (-want +got):\n%s", diff)
	}
	if notified != 1 {
		t.Fatalf("expected one refresh notification after rename, got %d", notified)
	}
}

func TestRenameRejectsEmptyName(t *testing.T) {
	m, b := newTestModel(t, "A/Work")
	m = press(t, m, "R", "ctrl+u", "enter")
	if m.RenameState() != Renaming {
		t.Fatalf("invalid rename should keep the prompt open")
	}
	if m.Status() == "" {
		t.Fatalf("expected an error status")
	}
	if diff := cmp.Diff([]string{"Work"}, b.GroupOrder()); diff != "" {
		t.Fatalf("groups changed:\n%s", diff)
	}
}

func TestBackupKeyWritesIntoBoardDir(t *testing.T) {
	m, _ := newTestModel(t, "A/G1")
	m = press(t, m, "b")
	if !strings.Contains(m.Status(), "dashboard_backup_") {
		t.Fatalf("unexpected status %q", m.Status())
	}
	matches, err := filepath.Glob(filepath.Join(m.opts.Dir, "dashboard_backup_*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one backup file, got %v (%v)", matches, err)
	}
	doc, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if _, err := store.DecodeBackup(doc); err != nil {
		t.Fatalf("backup does not decode: %v", err)
	}
}

func TestBackupKeyOnEmptyBoard(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "b")
	if !strings.Contains(m.Status(), "empty") {
		t.Fatalf("expected empty-collection error, got %q", m.Status())
	}
}

func TestBoardChangedMsgRefreshes(t *testing.T) {
	m, b := newTestModel(t, "A/G1")
	if err := b.Delete(context.Background(), "tile-a"); err != nil {
		t.Fatal(err)
	}
	updated, _ := m.Update(boardChangedMsg{})
	m = updated.(Model)
	if m.Cursor() != "" {
		t.Fatalf("cursor should clear when the board empties; got %q", m.Cursor())
	}
}

func TestViewShowsGroupsAndTiles(t *testing.T) {
	m, _ := newTestModel(t, "Mail/Work", "News/Others")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	out := m.View()
	for _, want := range []string{"tiledash", "test", "Work", "Others", "Mail", "News", "mail.example", "2 tiles"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Work") > strings.Index(out, "Others") {
		t.Fatalf("groups should render in first-seen order:\n%s", out)
	}
}

func TestViewEmptyBoard(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.View(), "No tiles yet") {
		t.Fatalf("expected empty state")
	}
}
