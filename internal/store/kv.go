package store

import (
	"context"
	"sync"
)

// KV is a persistent key-value store scoped to one board.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// MemKV is an in-memory KV. SetErr, when non-nil, makes every Set fail and
// GetErr every Get (used to exercise storage failures).
type MemKV struct {
	mu     sync.Mutex
	m      map[string][]byte
	SetErr error
	GetErr error
	Sets   int
}

func NewMemKV() *MemKV {
	return &MemKV{m: map[string][]byte{}}
}

func (kv *MemKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.GetErr != nil {
		return nil, false, kv.GetErr
	}
	v, ok := kv.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (kv *MemKV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.SetErr != nil {
		return kv.SetErr
	}
	kv.m[key] = append([]byte(nil), value...)
	kv.Sets++
	return nil
}

func (kv *MemKV) Close() error { return nil }
