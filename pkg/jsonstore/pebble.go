package jsonstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/harunnryd/voicedays/pkg/errorsx"
)

// PebbleStore keeps one key per record, ordered by position. Update commits
// the whole new list in one batch so readers never see a partial rewrite.
type PebbleStore[T any] struct {
	db *pebble.DB
	mu sync.Mutex
}

var recordPrefix = []byte("rec/")

func OpenPebble[T any](dir string) (*PebbleStore[T], error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("pebble open: %w", err), errorsx.ReasonStoreRead)
	}
	return &PebbleStore[T]{db: db}, nil
}

func (p *PebbleStore[T]) Close() error { return p.db.Close() }

func recordKey(i int) []byte {
	k := make([]byte, len(recordPrefix)+8)
	copy(k, recordPrefix)
	binary.BigEndian.PutUint64(k[len(recordPrefix):], uint64(i))
	return k
}

func prefixUpperBound() []byte {
	end := append([]byte(nil), recordPrefix...)
	end[len(end)-1]++
	return end
}

func (p *PebbleStore[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.read()
}

func (p *PebbleStore[T]) read() ([]T, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: recordPrefix,
		UpperBound: prefixUpperBound(),
	})
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("pebble iter: %w", err), errorsx.ReasonStoreRead)
	}
	defer it.Close()
	out := []T{}
	for it.First(); it.Valid(); it.Next() {
		var rec T
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := it.Error(); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("pebble iter: %w", err), errorsx.ReasonStoreRead)
	}
	return out, nil
}

func (p *PebbleStore[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	current, err := p.read()
	if err != nil {
		return err
	}
	next, err := fn(current)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}

	// unreadable records are skipped by read, so clear the whole range
	b := p.db.NewBatch()
	defer b.Close()
	if err := b.DeleteRange(recordPrefix, prefixUpperBound(), nil); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreWrite)
	}
	for i, rec := range next {
		val, err := json.Marshal(rec)
		if err != nil {
			return errorsx.Wrapf(err, errorsx.ReasonStoreWrite, "encode record %d", i)
		}
		if err := b.Set(recordKey(i), val, nil); err != nil {
			return errorsx.Wrap(err, errorsx.ReasonStoreWrite)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errorsx.Wrap(fmt.Errorf("pebble commit: %w", err), errorsx.ReasonStoreWrite)
	}
	return nil
}

var _ Store[struct{}] = (*PebbleStore[struct{}])(nil)
