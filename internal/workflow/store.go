package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// Store persists workflow instances.
type Store interface {
	// Create inserts a new instance.
	Create(ctx context.Context, inst *Instance) error
	// Save overwrites an existing instance. Returns ErrNotFound when the
	// instance was never created.
	Save(ctx context.Context, inst *Instance) error
	// Get returns the instance with the given id, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Instance, error)
}

// MemoryStore is a process-local Store. Instances are copied on every read
// and write so callers never alias stored state.
type MemoryStore struct {
	mu        sync.RWMutex
	instances map[uuid.UUID]*Instance
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{instances: make(map[uuid.UUID]*Instance)}
}

func (s *MemoryStore) Create(ctx context.Context, inst *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[inst.ID]; exists {
		return fmt.Errorf("instance %s already exists", inst.ID)
	}
	s.instances[inst.ID] = copyInstance(inst)
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, inst *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[inst.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, inst.ID)
	}
	s.instances[inst.ID] = copyInstance(inst)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copyInstance(inst), nil
}

func copyInstance(inst *Instance) *Instance {
	clone := *inst
	clone.Results = make(map[Stage]json.RawMessage, len(inst.Results))
	maps.Copy(clone.Results, inst.Results)
	return &clone
}
