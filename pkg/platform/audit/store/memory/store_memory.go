package memory

import (
	"context"
	"sync"

	audit "briq/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
	all    []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
	s.all = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Address] = append(s.events[event.Address], event)
	s.all = append(s.all, event)
	return nil
}

func (s *InMemoryStore) ListByAddress(_ context.Context, address string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[address]...), nil
}

// ListRecent returns the last limit events across all addresses, oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.all) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.all[start:]...), nil
}

// Actions returns the recorded actions for address in order. Test helper.
func (s *InMemoryStore) Actions(address string) []audit.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Action, 0, len(s.events[address]))
	for _, e := range s.events[address] {
		out = append(out, e.Action)
	}
	return out
}
