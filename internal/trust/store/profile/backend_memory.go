package profile

import (
	"context"
	"sync"

	"briq/pkg/platform/sentinel"
)

// InMemoryBackend keeps records in a map. Used in tests and single-process runs.
type InMemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{records: make(map[string]Record)}
}

func (b *InMemoryBackend) Load(_ context.Context, key string) (Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[key]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return Record{Data: append([]byte(nil), rec.Data...), Revision: rec.Revision}, nil
}

func (b *InMemoryBackend) Insert(_ context.Context, key string, data []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.records[key]; ok {
		return 0, sentinel.ErrAlreadyUsed
	}
	b.records[key] = Record{Data: append([]byte(nil), data...), Revision: 1}
	return 1, nil
}

func (b *InMemoryBackend) Put(_ context.Context, key string, data []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rev := b.records[key].Revision + 1
	b.records[key] = Record{Data: append([]byte(nil), data...), Revision: rev}
	return rev, nil
}

func (b *InMemoryBackend) CompareAndPut(_ context.Context, key string, data []byte, expected uint64) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.records[key].Revision != expected {
		return 0, sentinel.ErrConflict
	}
	rev := expected + 1
	b.records[key] = Record{Data: append([]byte(nil), data...), Revision: rev}
	return rev, nil
}

// Raw overwrites a key without touching the codec. Lets tests plant corrupt or
// foreign-version records.
func (b *InMemoryBackend) Raw(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[key] = Record{Data: data, Revision: b.records[key].Revision + 1}
}
