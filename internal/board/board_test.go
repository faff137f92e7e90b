package board

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tiledash/internal/model"
	"tiledash/internal/mutate"
	"tiledash/internal/store"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newBoard(t *testing.T, seed []model.Tile) (*Board, *store.MemKV) {
	t.Helper()
	kv := store.NewMemKV()
	st := &store.Store{KV: kv}
	ctx := context.Background()
	if seed != nil {
		if err := st.Save(ctx, seed); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	b, err := Open(ctx, st, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return b, kv
}

func seedTiles(pairs ...[2]string) []model.Tile {
	out := make([]model.Tile, 0, len(pairs))
	for _, s := range pairs {
		out = append(out, model.Tile{ID: "id-" + s[0], Name: s[0], URL: "https://" + s[0] + ".example", Img: "x", Group: s[1]})
	}
	return out
}

func tileNames(tiles []model.Tile) []string {
	out := make([]string, len(tiles))
	for i, t := range tiles {
		out[i] = t.Name
	}
	return out
}

func persisted(t *testing.T, kv *store.MemKV) []model.Tile {
	t.Helper()
	b, ok, err := kv.Get(context.Background(), store.TilesKey)
	if err != nil || !ok {
		t.Fatalf("persisted tiles missing: ok=%v err=%v", ok, err)
	}
	var out []model.Tile
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("persisted tiles: %v", err)
	}
	return out
}

func TestAddScenario_DefaultsGroupAndScheme(t *testing.T) {
	b, kv := newBoard(t, nil)
	ctx := context.Background()

	got, err := b.Save(ctx, mutate.TileInput{Name: "Mail", URL: "mail.google.com"}, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	tiles := b.Tiles()
	if len(tiles) != 1 {
		t.Fatalf("len=%d", len(tiles))
	}
	if tiles[0].Group != "Others" || tiles[0].URL != "https://mail.google.com" || tiles[0].ID != got.ID {
		t.Fatalf("unexpected tile: %+v", tiles[0])
	}
	if diff := cmp.Diff(tiles, persisted(t, kv)); diff != "" {
		t.Fatalf("memory and storage differ:\n%s", diff)
	}
}

func TestSave_AppendsAtEndNotIntoGroupRun(t *testing.T) {
	b, _ := newBoard(t, seedTiles([2]string{"a1", "A"}, [2]string{"b1", "B"}))
	if _, err := b.Save(context.Background(), mutate.TileInput{Name: "a2", URL: "a2.example", Group: "A"}, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if diff := cmp.Diff([]string{"a1", "b1", "a2"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
}

func TestSave_EditInPlaceByID(t *testing.T) {
	b, _ := newBoard(t, seedTiles([2]string{"a", "A"}, [2]string{"b", "B"}))
	got, err := b.Save(context.Background(), mutate.TileInput{Name: "b2", URL: "http://b2.example", Group: ""}, "id-b")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got.ID != "id-b" || got.Group != model.DefaultGroup || got.URL != "http://b2.example" {
		t.Fatalf("unexpected: %+v", got)
	}
	if diff := cmp.Diff([]string{"a", "b2"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}

	_, err = b.Save(context.Background(), mutate.TileInput{Name: "x", URL: "x"}, "missing")
	var nf mutate.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err=%v, want NotFoundError", err)
	}
}

func TestSave_ValidationLeavesStateUntouched(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"a", "A"}))
	sets := kv.Sets
	_, err := b.Save(context.Background(), mutate.TileInput{Name: "  ", URL: "x"}, "")
	var ve mutate.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err=%v, want ValidationError", err)
	}
	if kv.Sets != sets || b.Len() != 1 {
		t.Fatalf("validation failure must not flush (sets %d->%d, len=%d)", sets, kv.Sets, b.Len())
	}
}

func TestMoveTile_NoOpSafety(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"a1", "A"}, [2]string{"b1", "B"}))
	before, _, _ := kv.Get(context.Background(), store.TilesKey)
	sets := kv.Sets

	for _, tc := range [][2]int{{0, 1}, {1, -1}, {0, -1}, {1, 1}, {7, 1}} {
		moved, err := b.MoveTile(context.Background(), tc[0], tc[1])
		if err != nil || moved {
			t.Fatalf("MoveTile(%d,%d) moved=%v err=%v", tc[0], tc[1], moved, err)
		}
	}
	after, _, _ := kv.Get(context.Background(), store.TilesKey)
	if string(before) != string(after) || kv.Sets != sets {
		t.Fatalf("no-op moves changed storage")
	}
}

func TestMoveTileByID(t *testing.T) {
	b, _ := newBoard(t, seedTiles([2]string{"a1", "A"}, [2]string{"a2", "A"}))
	moved, err := b.MoveTileByID(context.Background(), "id-a2", -1)
	if err != nil || !moved {
		t.Fatalf("moved=%v err=%v", moved, err)
	}
	if diff := cmp.Diff([]string{"a2", "a1"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if _, err := b.MoveTileByID(context.Background(), "nope", 1); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestMoveGroup_StabilityAndNotify(t *testing.T) {
	b, kv := newBoard(t, seedTiles(
		[2]string{"a1", "A"}, [2]string{"a2", "A"}, [2]string{"b1", "B"}, [2]string{"c1", "C"}, [2]string{"c2", "C"},
	))
	calls := 0
	cancel := b.Subscribe(func() { calls++ })
	defer cancel()

	moved, err := b.MoveGroup(context.Background(), "B", -1, b.GroupOrder())
	if err != nil || !moved {
		t.Fatalf("moved=%v err=%v", moved, err)
	}
	if diff := cmp.Diff([]string{"B", "A", "C"}, b.GroupOrder()); diff != "" {
		t.Fatalf("group order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b1", "a1", "a2", "c1", "c2"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("tile order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(b.Tiles(), persisted(t, kv)); diff != "" {
		t.Fatalf("memory and storage differ:\n%s", diff)
	}
	if calls != 1 {
		t.Fatalf("notifications=%d, want 1", calls)
	}

	// Edge: B is first now.
	if moved, _ := b.MoveGroup(context.Background(), "B", -1, nil); moved {
		t.Fatalf("expected no-op at edge")
	}
	if calls != 1 {
		t.Fatalf("no-op must not notify")
	}
}

func TestRenameGroup_FlushesWithoutNotify(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"y1", "Y"}, [2]string{"x1", "X"}, [2]string{"y2", "Y"}))
	calls := 0
	cancel := b.Subscribe(func() { calls++ })
	defer cancel()

	if err := b.RenameGroup(context.Background(), "X", "Y"); err != nil {
		t.Fatalf("RenameGroup: %v", err)
	}
	if calls != 0 {
		t.Fatalf("rename must leave re-render to the caller")
	}
	if diff := cmp.Diff([]string{"y1", "x1", "y2"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("positions changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Y"}, b.GroupOrder()); diff != "" {
		t.Fatalf("group order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(b.Tiles(), persisted(t, kv)); diff != "" {
		t.Fatalf("memory and storage differ:\n%s", diff)
	}
	b.Refresh()
	if calls != 1 {
		t.Fatalf("Refresh should notify")
	}
}

func TestRenameGroup_Rejection(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"x1", "X"}))
	sets := kv.Sets
	for _, next := range []string{"", "  ", "X"} {
		if err := b.RenameGroup(context.Background(), "X", next); err == nil {
			t.Fatalf("RenameGroup(X,%q) should fail", next)
		}
	}
	if b.Tiles()[0].Group != "X" || kv.Sets != sets {
		t.Fatalf("rejected rename changed state")
	}
}

func TestDelete(t *testing.T) {
	b, _ := newBoard(t, seedTiles([2]string{"a", "A"}, [2]string{"b", "A"}))
	if err := b.Delete(context.Background(), "id-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if moved, err := b.DeleteAt(context.Background(), 5); moved || err != nil {
		t.Fatalf("DeleteAt out of range should be a no-op")
	}
	if ok, err := b.DeleteAt(context.Background(), 0); !ok || err != nil {
		t.Fatalf("DeleteAt(0) ok=%v err=%v", ok, err)
	}
	if b.Len() != 0 {
		t.Fatalf("expected empty board")
	}
}

func TestFlushFailure_LeavesMemoryUntouched(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"a1", "A"}, [2]string{"a2", "A"}))
	before := b.Tiles()
	kv.SetErr = errors.New("disk full")

	if _, err := b.MoveTile(context.Background(), 0, 1); err == nil {
		t.Fatalf("expected flush error")
	}
	if _, err := b.Save(context.Background(), mutate.TileInput{Name: "n", URL: "u"}, ""); err == nil {
		t.Fatalf("expected flush error")
	}
	if diff := cmp.Diff(before, b.Tiles()); diff != "" {
		t.Fatalf("memory changed after failed flush:\n%s", diff)
	}
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	src, _ := newBoard(t, seedTiles([2]string{"a1", "A"}, [2]string{"b1", "B"}, [2]string{"a2", "A"}))
	doc, err := src.Backup()
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}

	dst, kv := newBoard(t, seedTiles([2]string{"z", "Z"}))
	n, err := dst.Restore(context.Background(), doc)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 3 {
		t.Fatalf("restored %d, want 3", n)
	}
	if diff := cmp.Diff(src.Tiles(), dst.Tiles()); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(dst.Tiles(), persisted(t, kv)); diff != "" {
		t.Fatalf("memory and storage differ:\n%s", diff)
	}
}

func TestBackup_EmptyBoard(t *testing.T) {
	b, _ := newBoard(t, nil)
	if _, err := b.Backup(); !errors.Is(err, store.ErrEmptyCollection) {
		t.Fatalf("err=%v, want ErrEmptyCollection", err)
	}
}

func TestRestore_RejectionIsTotal(t *testing.T) {
	docs := []string{
		`{"name":"a","url":"b"}`,
		`[{"url":"https://x"}]`,
		`[{"name":"a","url":"https://a"},{"name":"b"}]`,
		`not json`,
		`null`,
		`"tiles"`,
		``,
	}
	for _, doc := range docs {
		b, kv := newBoard(t, seedTiles([2]string{"keep", "K"}))
		before := b.Tiles()
		sets := kv.Sets
		_, err := b.Restore(context.Background(), []byte(doc))
		var mb *store.MalformedBackupError
		if !errors.As(err, &mb) {
			t.Fatalf("Restore(%q) err=%v, want MalformedBackupError", doc, err)
		}
		if diff := cmp.Diff(before, b.Tiles()); diff != "" || kv.Sets != sets {
			t.Fatalf("Restore(%q) changed state:\n%s", doc, diff)
		}
	}
}

func TestOpen_AssignsIDsToLegacyTiles(t *testing.T) {
	kv := store.NewMemKV()
	legacy := `[{"name":"Mail","url":"https://mail.google.com","img":"x","group":""}]`
	if err := kv.Set(context.Background(), store.TilesKey, []byte(legacy)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b, err := Open(context.Background(), &store.Store{KV: kv}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := b.Tiles()[0]
	if got.ID == "" || got.Group != model.DefaultGroup {
		t.Fatalf("unexpected: %+v", got)
	}
	if diff := cmp.Diff(b.Tiles(), persisted(t, kv)); diff != "" {
		t.Fatalf("normalization was not flushed:\n%s", diff)
	}
}

func TestSubscribe_Cancel(t *testing.T) {
	b, _ := newBoard(t, seedTiles([2]string{"a1", "A"}, [2]string{"a2", "A"}))
	calls := 0
	cancel := b.Subscribe(func() { calls++ })
	if _, err := b.Swap(context.Background(), 0, 1); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	cancel()
	if _, err := b.Swap(context.Background(), 0, 1); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
}

func TestReload_PicksUpExternalWriteOnce(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"a1", "A"}))
	ctx := context.Background()
	calls := 0
	defer b.Subscribe(func() { calls++ })()

	other := &store.Store{KV: kv}
	if err := other.Save(ctx, seedTiles([2]string{"a1", "A"}, [2]string{"b1", "B"})); err != nil {
		t.Fatalf("external save: %v", err)
	}
	if !b.Reload(ctx) {
		t.Fatalf("Reload reported no change")
	}
	if diff := cmp.Diff([]string{"a1", "b1"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("tiles (-want +got):\n%s", diff)
	}
	if b.Reload(ctx) {
		t.Fatalf("second Reload reported a change")
	}
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
}

func TestReload_ReadErrorKeepsState(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"a1", "A"}, [2]string{"a2", "A"}))
	ctx := context.Background()
	calls := 0
	defer b.Subscribe(func() { calls++ })()

	kv.GetErr = errors.New("database is locked")
	if b.Reload(ctx) {
		t.Fatalf("Reload reported a change after a read error")
	}
	kv.GetErr = nil
	if calls != 0 {
		t.Fatalf("calls=%d, want 0", calls)
	}

	if _, err := b.Save(ctx, mutate.TileInput{Name: "a3", URL: "a3.example", Group: "A"}, ""); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if diff := cmp.Diff([]string{"a1", "a2", "a3"}, tileNames(persisted(t, kv))); diff != "" {
		t.Fatalf("persisted (-want +got):\n%s", diff)
	}
}

func TestReload_CorruptDocumentKeepsState(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"a1", "A"}))
	ctx := context.Background()
	if err := kv.Set(ctx, store.TilesKey, []byte("{")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if b.Reload(ctx) {
		t.Fatalf("Reload reported a change for a corrupt document")
	}
	if diff := cmp.Diff([]string{"a1"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("tiles (-want +got):\n%s", diff)
	}
}

func TestReload_NormalizesAndFlushes(t *testing.T) {
	b, kv := newBoard(t, seedTiles([2]string{"a1", "A"}))
	ctx := context.Background()

	raw := `[{"name":"a1","url":"https://a1.example","img":"x","group":"A","id":"id-a1"},` +
		`{"name":"n1","url":"n1.example","img":"x","group":""}]`
	if err := kv.Set(ctx, store.TilesKey, []byte(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !b.Reload(ctx) {
		t.Fatalf("Reload reported no change")
	}
	got := b.Tiles()
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[1].ID == "" || got[1].Group != model.DefaultGroup || got[1].URL != "https://n1.example" {
		t.Fatalf("not normalized: %+v", got[1])
	}
	if diff := cmp.Diff(got, persisted(t, kv)); diff != "" {
		t.Fatalf("normalization was not flushed:\n%s", diff)
	}
	if _, _, ok := b.Find(""); ok {
		t.Fatalf("Find(\"\") matched a tile")
	}
}

func TestWatch_ReloadsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.Open(ctx, dir, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()
	if err := st.Save(ctx, seedTiles([2]string{"a1", "A"})); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b, err := Open(ctx, st, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	changed := make(chan struct{}, 1)
	defer b.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})()

	watchCtx, stopWatch := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- b.Watch(watchCtx, dir) }()

	other, err := store.Open(ctx, dir, nil)
	if err != nil {
		t.Fatalf("store.Open(other): %v", err)
	}
	defer other.Close()

	// The watcher may not be registered yet when the first write lands, so
	// keep writing until a reload is seen.
	want := seedTiles([2]string{"a1", "A"}, [2]string{"b1", "B"})
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()
	for seen := false; !seen; {
		if err := other.Save(ctx, want); err != nil {
			t.Fatalf("external save: %v", err)
		}
		select {
		case <-changed:
			seen = true
		case <-tick.C:
		case <-ctx.Done():
			t.Fatalf("no reload after external write")
		}
	}
	if diff := cmp.Diff([]string{"a1", "b1"}, tileNames(b.Tiles())); diff != "" {
		t.Fatalf("tiles (-want +got):\n%s", diff)
	}

	stopWatch()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Watch did not return after cancel")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	b, _ := newBoard(t, nil)
	if err := b.Watch(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for a missing dir")
	}
}
