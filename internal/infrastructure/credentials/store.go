package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

// Persister keeps credentials across process restarts.
type Persister interface {
	Load() (domain.Credentials, error)
	Save(creds domain.Credentials) error
	Remove() error
}

type Store struct {
	mu      sync.RWMutex
	creds   domain.Credentials
	persist Persister
}

// NewMemoryStore starts empty and forgets everything on exit.
func NewMemoryStore() *Store {
	return &Store{}
}

// NewStore loads the initial credentials from persist.
func NewStore(persist Persister) (*Store, error) {
	store := &Store{persist: persist}
	if persist == nil {
		return store, nil
	}
	creds, err := persist.Load()
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	store.creds = creds
	return store, nil
}

func NewFileStore(path string) (*Store, error) {
	return NewStore(NewFilePersister(path))
}

func (s *Store) Credentials() domain.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *Store) SetCredentials(creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return s.save()
}

// SetAccess replaces the access credential and keeps the refresh credential.
func (s *Store) SetAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.Access = access
	return s.save()
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = domain.Credentials{}
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Remove(); err != nil {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

func (s *Store) save() error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Save(s.creds); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	return nil
}

type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (p *FilePersister) Load() (domain.Credentials, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Credentials{}, nil
		}
		return domain.Credentials{}, fmt.Errorf("read token file: %w", err)
	}
	var creds domain.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return domain.Credentials{}, fmt.Errorf("decode token file: %w", err)
	}
	return creds, nil
}

func (p *FilePersister) Save(creds domain.Credentials) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func (p *FilePersister) Remove() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
