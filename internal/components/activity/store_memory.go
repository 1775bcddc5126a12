package activity

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu    sync.RWMutex
	docs  map[string]Activity
	order []string // insertion order
}

// NewMemoryStore returns a process-local Store. Contents are lost on restart.
func NewMemoryStore() Store {
	return &memoryStore{docs: make(map[string]Activity)}
}

func (s *memoryStore) Insert(_ context.Context, doc Activity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc.ID = uuid.NewString()
	if doc.Version == 0 {
		doc.Version = 1
	}
	s.docs[doc.ID] = doc
	s.order = append(s.order, doc.ID)
	return doc.ID, nil
}

func (s *memoryStore) Update(_ context.Context, id string, patch Patch) (*Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.ExpectedVersion != 0 && patch.ExpectedVersion != current.Version {
		return nil, ErrVersionConflict
	}

	updated := patch.apply(current)
	s.docs[id] = updated
	return &updated, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *memoryStore) GetAll(_ context.Context) ([]Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activities := make([]Activity, 0, len(s.order))
	for _, id := range s.order {
		activities = append(activities, s.docs[id])
	}
	return activities, nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func (s *memoryStore) Close() error { return nil }
