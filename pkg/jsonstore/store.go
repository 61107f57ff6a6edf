// Package jsonstore persists small record lists for the demo agents.
//
// Every store holds an ordered list of records. Update is a single-writer
// transaction: the callback sees the current list and returns the next one,
// which replaces the stored list as a whole.
package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

type Store[T any] interface {
	Load(ctx context.Context) ([]T, error)
	Update(ctx context.Context, fn func([]T) ([]T, error)) error
}

// ErrNoChange may be returned by an Update callback to leave the stored list
// as it is. Update then returns nil.
var ErrNoChange = errors.New("jsonstore: no change")

const (
	BackendFile   = "file"
	BackendPebble = "pebble"
)

// Open builds a store named name under dir for the given backend.
// The returned closer must be closed when the store is no longer used.
func Open[T any](backend, dir, name string) (Store[T], io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore[T](filepath.Join(dir, name+".json")), nopCloser{}, nil
	case BackendPebble:
		s, err := OpenPebble[T](filepath.Join(dir, name+".pebble"))
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
