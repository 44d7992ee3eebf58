package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/infrastructure/storage/localfs"
)

const fileKey = "session.json"

// FileStore keeps the snapshot in the state directory until logout or "job change".
type FileStore struct {
	storage *localfs.Storage
}

func NewFileStore(storage *localfs.Storage) *FileStore {
	return &FileStore{storage: storage}
}

func (s *FileStore) Save(ctx context.Context, snapshot domain.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := s.storage.Save(ctx, fileKey, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (*domain.SessionSnapshot, error) {
	rc, err := s.storage.Open(ctx, fileKey)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read session snapshot: %w", err)
	}
	return decode(data)
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := s.storage.Remove(ctx, fileKey); err != nil {
		return fmt.Errorf("clear session snapshot: %w", err)
	}
	return nil
}

// decode treats an empty or titleless payload as no snapshot.
func decode(data []byte) (*domain.SessionSnapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode session snapshot: %w", err)
	}
	if snapshot.SelectedJobTitle == "" && snapshot.Skills == nil {
		return nil, nil
	}
	return &snapshot, nil
}
