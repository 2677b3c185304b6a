package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
)

// FileStore keeps one <id>.json file per trip in a directory.
// Writes go to a temp file that is renamed into place, so a reader never
// sees a half-written document.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repo.NewFileStore: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

func (s *FileStore) Load(_ context.Context, id uuid.UUID) ([]byte, error) {
	doc, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("repo.FileStore.Load: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repo.FileStore.Load: %w", err)
	}
	return doc, nil
}

func (s *FileStore) Save(_ context.Context, id uuid.UUID, doc []byte) error {
	tmp, err := os.CreateTemp(s.dir, id.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("repo.FileStore.Save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("repo.FileStore.Save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repo.FileStore.Save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		return fmt.Errorf("repo.FileStore.Save: rename: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repo.FileStore.Delete: %w", err)
	}
	return true, nil
}

// List reads every document in the directory, newest file first.
func (s *FileStore) List(_ context.Context) ([][]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("repo.FileStore.List: %w", err)
	}

	type file struct {
		name string
		mod  int64
	}
	files := make([]file, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if _, err := uuid.Parse(strings.TrimSuffix(e.Name(), ".json")); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("repo.FileStore.List: %w", err)
		}
		files = append(files, file{name: e.Name(), mod: info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].mod != files[j].mod {
			return files[i].mod > files[j].mod
		}
		return files[i].name < files[j].name
	})

	docs := make([][]byte, 0, len(files))
	for _, f := range files {
		doc, err := os.ReadFile(filepath.Join(s.dir, f.name))
		if err != nil {
			return nil, fmt.Errorf("repo.FileStore.List: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
