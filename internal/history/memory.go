package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process development.
// All methods are safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	instances map[string]*Instance
	events    map[string][]Event
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instances: make(map[string]*Instance),
		events:    make(map[string][]Event),
	}
}

func (s *MemoryStore) CreateInstance(_ context.Context, inst Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[inst.ID]; ok {
		return ErrInstanceExists
	}

	for _, existing := range s.instances {
		if existing.CorrelationKey == inst.CorrelationKey && !existing.State.Terminal() {
			return ErrActiveInstance
		}
	}

	now := time.Now()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	s.instances[inst.ID] = &inst
	s.events[inst.ID] = make([]Event, 0)
	return nil
}

func (s *MemoryStore) Instance(_ context.Context, id string) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, ErrNotFound
	}

	copied := *inst
	return &copied, nil
}

func (s *MemoryStore) ActiveInstances(_ context.Context) ([]Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Instance, 0)
	for _, inst := range s.instances {
		if !inst.State.Terminal() {
			active = append(active, *inst)
		}
	}
	return active, nil
}

func (s *MemoryStore) SetState(_ context.Context, id string, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return ErrNotFound
	}

	inst.State = state
	inst.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Append(_ context.Context, instanceID string, e Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[instanceID]; !ok {
		return 0, ErrNotFound
	}

	e.Seq = len(s.events[instanceID]) + 1
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}

	s.events[instanceID] = append(s.events[instanceID], e)
	return e.Seq, nil
}

func (s *MemoryStore) Load(_ context.Context, instanceID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, ok := s.events[instanceID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]Event, len(events))
	copy(copied, events)
	return copied, nil
}
