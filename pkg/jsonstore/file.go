package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/harunnryd/voicedays/pkg/errorsx"
)

// FileStore keeps the records as one JSON array in a flat file.
// A missing or corrupt file reads as an empty list; malformed entries are
// skipped. Writes go through a temp file and a rename.
type FileStore[T any] struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

func NewFileStore[T any](path string) *FileStore[T] {
	return &FileStore[T]{
		path:   path,
		logger: slog.Default().With(slog.String("component", "jsonstore"), slog.String("path", path)),
	}
}

func (s *FileStore[T]) Path() string { return s.path }

// Init creates the file with an empty array when it does not exist yet.
func (s *FileStore[T]) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return errorsx.Wrapf(err, errorsx.ReasonStoreRead, "stat %s", s.path)
	}
	return s.write(ctx, []T{})
}

func (s *FileStore[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

func (s *FileStore[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.read())
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.write(ctx, next)
}

func (s *FileStore[T]) read() []T {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("jsonstore_read_failed", "error", err)
		}
		return []T{}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("jsonstore_corrupt_file", "error", err)
		return []T{}
	}
	out := make([]T, 0, len(raw))
	for i, entry := range raw {
		var rec T
		if err := json.Unmarshal(entry, &rec); err != nil {
			s.logger.Warn("jsonstore_skip_malformed", "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (s *FileStore[T]) write(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "encode %s", s.path)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "mkdir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "create temp for %s", s.path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "replace %s", s.path)
	}
	return nil
}

var _ Store[struct{}] = (*FileStore[struct{}])(nil)
