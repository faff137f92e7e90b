// Package board owns the in-memory tile collection. Every mutation is applied
// to a copy, flushed to the Persister, and only then published, so memory and
// storage never disagree. Subscribers are told about each published change.
package board

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"tiledash/internal/model"
	"tiledash/internal/mutate"
	"tiledash/internal/store"

	"go.uber.org/zap"
)

// Persister is the storage adapter a Board flushes to.
type Persister interface {
	// Load fails open and is only used at startup.
	Load(ctx context.Context) []model.Tile
	LoadStrict(ctx context.Context) ([]model.Tile, error)
	Save(ctx context.Context, tiles []model.Tile) error
}

type Board struct {
	mu    sync.Mutex
	p     Persister
	tiles []model.Tile
	log   *zap.Logger

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Open loads the collection from p. Tiles written before ids existed (or by
// hand) get ids, the default group and normalized URLs; that repair is flushed
// right away so ids stay stable across processes.
func Open(ctx context.Context, p Persister, log *zap.Logger) (*Board, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Board{p: p, log: log, subs: map[int]func(){}}
	tiles := p.Load(ctx)
	if store.NeedsNormalize(tiles) {
		tiles = store.NormalizeTiles(tiles)
		if err := p.Save(ctx, tiles); err != nil {
			return nil, fmt.Errorf("flush normalized tiles: %w", err)
		}
		log.Info("normalized stored tiles", zap.Int("count", len(tiles)))
	}
	b.tiles = tiles
	return b, nil
}

// Tiles returns a copy of the current ordered collection.
func (b *Board) Tiles() []model.Tile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.Clone(b.tiles)
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tiles)
}

// GroupOrder derives the current group order.
func (b *Board) GroupOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return store.GroupOrder(b.tiles)
}

// Groups returns the non-empty group names, for suggestion lists.
func (b *Board) Groups() []string {
	out := []string{}
	for _, g := range b.GroupOrder() {
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

// Find returns the tile with id and its current index.
func (b *Board) Find(id string) (model.Tile, int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := indexOf(b.tiles, id)
	if i < 0 {
		return model.Tile{}, -1, false
	}
	return b.tiles[i], i, true
}

func indexOf(tiles []model.Tile, id string) int {
	if id == "" {
		return -1
	}
	for i := range tiles {
		if tiles[i].ID == id {
			return i
		}
	}
	return -1
}

// apply runs fn on a copy of the collection. When fn reports a change the copy
// is flushed and then published; a failed flush leaves the board untouched.
func (b *Board) apply(ctx context.Context, op string, notify bool, fn func(next []model.Tile) ([]model.Tile, bool, error)) (bool, error) {
	b.mu.Lock()
	next, changed, err := fn(model.Clone(b.tiles))
	if err != nil || !changed {
		b.mu.Unlock()
		if err == nil {
			b.log.Debug("no-op", zap.String("op", op))
		}
		return false, err
	}
	if err := b.p.Save(ctx, next); err != nil {
		b.mu.Unlock()
		b.log.Error("flush failed", zap.String("op", op), zap.Error(err))
		return false, fmt.Errorf("%s: flush: %w", op, err)
	}
	b.tiles = next
	b.mu.Unlock()

	b.log.Debug("applied", zap.String("op", op), zap.Int("count", len(next)))
	if notify {
		b.notify()
	}
	return true, nil
}

// Swap exchanges positions i and j. Invalid indexes are a silent no-op.
func (b *Board) Swap(ctx context.Context, i, j int) (bool, error) {
	return b.apply(ctx, "swap", true, func(next []model.Tile) ([]model.Tile, bool, error) {
		return next, mutate.Swap(next, i, j), nil
	})
}

// MoveTile moves the tile at index one step within its group.
func (b *Board) MoveTile(ctx context.Context, index, dir int) (bool, error) {
	return b.apply(ctx, "move-tile", true, func(next []model.Tile) ([]model.Tile, bool, error) {
		return next, mutate.MoveTile(next, index, dir), nil
	})
}

// MoveTileByID is MoveTile addressed by tile id.
func (b *Board) MoveTileByID(ctx context.Context, id string, dir int) (bool, error) {
	return b.apply(ctx, "move-tile", true, func(next []model.Tile) ([]model.Tile, bool, error) {
		i := indexOf(next, id)
		if i < 0 {
			return nil, false, mutate.NotFoundError{Kind: "tile", ID: id}
		}
		return next, mutate.MoveTile(next, i, dir), nil
	})
}

// MoveGroup swaps key with its neighbour in order and re-sorts the collection.
// A nil order means the current group order.
func (b *Board) MoveGroup(ctx context.Context, key string, dir int, order []string) (bool, error) {
	return b.apply(ctx, "move-group", true, func(next []model.Tile) ([]model.Tile, bool, error) {
		if order == nil {
			order = store.GroupOrder(next)
		}
		out, ok := mutate.MoveGroup(next, key, dir, order)
		return out, ok, nil
	})
}

// RenameGroup renames oldName to the trimmed newName on every member. It
// flushes but does not notify subscribers; callers refresh when they are ready.
func (b *Board) RenameGroup(ctx context.Context, oldName, newName string) error {
	_, err := b.apply(ctx, "rename-group", false, func(next []model.Tile) ([]model.Tile, bool, error) {
		if _, err := mutate.RenameGroup(next, oldName, newName); err != nil {
			return nil, false, err
		}
		return next, true, nil
	})
	return err
}

// Save adds a tile (editID == "") or replaces the tile with editID in place.
func (b *Board) Save(ctx context.Context, in mutate.TileInput, editID string) (model.Tile, error) {
	var saved model.Tile
	_, err := b.apply(ctx, "save-tile", true, func(next []model.Tile) ([]model.Tile, bool, error) {
		if editID == "" {
			t, err := mutate.BuildTile(in, nil)
			if err != nil {
				return nil, false, err
			}
			saved = t
			return append(next, t), true, nil
		}
		i := indexOf(next, editID)
		if i < 0 {
			return nil, false, mutate.NotFoundError{Kind: "tile", ID: editID}
		}
		t, err := mutate.BuildTile(in, &next[i])
		if err != nil {
			return nil, false, err
		}
		next[i] = t
		saved = t
		return next, true, nil
	})
	return saved, err
}

// SaveAt is Save addressed by position; editIndex < 0 adds.
func (b *Board) SaveAt(ctx context.Context, in mutate.TileInput, editIndex int) (model.Tile, error) {
	if editIndex < 0 {
		return b.Save(ctx, in, "")
	}
	b.mu.Lock()
	if editIndex >= len(b.tiles) {
		b.mu.Unlock()
		return model.Tile{}, mutate.NotFoundError{Kind: "tile", ID: fmt.Sprintf("#%d", editIndex)}
	}
	id := b.tiles[editIndex].ID
	b.mu.Unlock()
	return b.Save(ctx, in, id)
}

// Delete removes the tile with id.
func (b *Board) Delete(ctx context.Context, id string) error {
	_, err := b.apply(ctx, "delete-tile", true, func(next []model.Tile) ([]model.Tile, bool, error) {
		i := indexOf(next, id)
		if i < 0 {
			return nil, false, mutate.NotFoundError{Kind: "tile", ID: id}
		}
		return append(next[:i], next[i+1:]...), true, nil
	})
	return err
}

// DeleteAt removes the tile at index; out of range is a no-op.
func (b *Board) DeleteAt(ctx context.Context, index int) (bool, error) {
	return b.apply(ctx, "delete-tile", true, func(next []model.Tile) ([]model.Tile, bool, error) {
		if index < 0 || index >= len(next) {
			return next, false, nil
		}
		return append(next[:index], next[index+1:]...), true, nil
	})
}

// Backup renders the collection as a backup document.
func (b *Board) Backup() ([]byte, error) {
	return store.EncodeBackup(b.Tiles())
}

// Restore validates doc and replaces the whole collection with it. On any
// error the current collection is left as it was.
func (b *Board) Restore(ctx context.Context, doc []byte) (int, error) {
	tiles, err := store.DecodeBackup(doc)
	if err != nil {
		return 0, err
	}
	_, err = b.apply(ctx, "restore", true, func([]model.Tile) ([]model.Tile, bool, error) {
		return tiles, true, nil
	})
	if err != nil {
		return 0, err
	}
	b.log.Info("restored backup", zap.Int("count", len(tiles)))
	return len(tiles), nil
}

// Reload re-reads the persisted collection, which another process may have
// written. Subscribers are notified only when the collection changed. A failed
// read keeps the current collection.
func (b *Board) Reload(ctx context.Context) bool {
	// Load under the lock so a concurrent flush cannot be undone by a stale read.
	b.mu.Lock()
	tiles, err := b.p.LoadStrict(ctx)
	if err != nil {
		b.mu.Unlock()
		b.log.Warn("reload failed; keeping current tiles", zap.Error(err))
		return false
	}
	if store.NeedsNormalize(tiles) {
		tiles = store.NormalizeTiles(tiles)
		if err := b.p.Save(ctx, tiles); err != nil {
			b.mu.Unlock()
			b.log.Warn("flush normalized tiles failed; keeping current tiles", zap.Error(err))
			return false
		}
		b.log.Info("normalized reloaded tiles", zap.Int("count", len(tiles)))
	}
	if slices.Equal(b.tiles, tiles) {
		b.mu.Unlock()
		return false
	}
	b.tiles = tiles
	b.mu.Unlock()
	b.log.Debug("reloaded tiles", zap.Int("count", len(tiles)))
	b.notify()
	return true
}
