package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tiledash/internal/model"

	"go.uber.org/zap"
)

// TilesKey is the single key the tile collection lives under.
const TilesKey = "tiles"

// Store reads and writes the whole tile collection as one JSON array.
type Store struct {
	KV  KV
	Log *zap.Logger
}

// Open returns a Store backed by the SQLite file in dir.
func Open(ctx context.Context, dir string, log *zap.Logger) (*Store, error) {
	kv, err := OpenSQLiteKV(ctx, dir)
	if err != nil {
		return nil, err
	}
	return &Store{KV: kv, Log: log}, nil
}

func (s *Store) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// Load returns the persisted collection. It fails open: a missing, unreadable
// or corrupt document yields an empty collection.
func (s *Store) Load(ctx context.Context) []model.Tile {
	tiles, err := s.LoadStrict(ctx)
	if err != nil {
		s.logger().Warn("load tiles failed; starting empty", zap.Error(err))
		return []model.Tile{}
	}
	return tiles
}

// LoadStrict is Load without the fallback: read and decode failures are
// returned. A missing document is still an empty collection.
func (s *Store) LoadStrict(ctx context.Context) ([]model.Tile, error) {
	if s == nil || s.KV == nil {
		return nil, errors.New("store: not open")
	}
	b, ok, err := s.KV.Get(ctx, TilesKey)
	if err != nil {
		return nil, fmt.Errorf("read tiles: %w", err)
	}
	if !ok || len(bytes.TrimSpace(b)) == 0 {
		return []model.Tile{}, nil
	}
	var tiles []model.Tile
	if err := json.Unmarshal(b, &tiles); err != nil {
		return nil, fmt.Errorf("tiles document is not a tile array: %w", err)
	}
	if tiles == nil {
		tiles = []model.Tile{}
	}
	return tiles, nil
}

// Save overwrites the persisted collection.
func (s *Store) Save(ctx context.Context, tiles []model.Tile) error {
	if s == nil || s.KV == nil {
		return errors.New("store: not open")
	}
	if tiles == nil {
		tiles = []model.Tile{}
	}
	b, err := json.Marshal(tiles)
	if err != nil {
		return err
	}
	if err := s.KV.Set(ctx, TilesKey, b); err != nil {
		return err
	}
	s.logger().Debug("tiles flushed", zap.Int("count", len(tiles)))
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.KV == nil {
		return nil
	}
	return s.KV.Close()
}
