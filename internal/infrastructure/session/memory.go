package session

import (
	"context"
	"sync"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

// MemoryStore lives as long as the process.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot *domain.SessionSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, snapshot domain.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = clone(snapshot)
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (*domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, nil
	}
	return clone(*s.snapshot), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	return nil
}

func clone(snapshot domain.SessionSnapshot) *domain.SessionSnapshot {
	out := domain.SessionSnapshot{SelectedJobTitle: snapshot.SelectedJobTitle}
	if snapshot.Skills != nil {
		out.Skills = append([]string{}, snapshot.Skills...)
	}
	return &out
}
