package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/easel/pkg/domain"
)

// ErrInvalidSessionID is returned for ids that cannot be used as a file name.
var ErrInvalidSessionID = errors.New("invalid session id")

const (
	ext       = ".json"
	tmpPrefix = "tmp-"
)

// Store implements ports.SnapshotStore on the local filesystem,
// one JSON file per session.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath (default ".easel/canvas").
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".easel", "canvas")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(sessionID string) (string, error) {
	if sessionID == "" || sessionID == "." || sessionID == ".." ||
		strings.ContainsAny(sessionID, `/\`) || strings.HasPrefix(sessionID, tmpPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	return filepath.Join(s.BasePath, sessionID+ext), nil
}

// Save writes the snapshot atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	destPath, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, tmpPrefix+sessionID+"-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		// Windows refuses to rename over an existing file.
		if _, statErr := os.Stat(destPath); statErr == nil {
			if rmErr := os.Remove(destPath); rmErr != nil {
				return fmt.Errorf("failed to replace snapshot: %w", rmErr)
			}
			err = os.Rename(tmpPath, destPath)
		}
		if err != nil {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
	}
	return nil
}

// Load reads the session's snapshot file.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	filePath, err := s.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the session's snapshot file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	filePath, err := s.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns the ids of every stored snapshot, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	sessions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(name, ext))
	}
	sort.Strings(sessions)
	return sessions, nil
}
