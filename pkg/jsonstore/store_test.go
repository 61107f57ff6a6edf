package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cockroachdb/pebble"
)

type record struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func appendRecord(id string) func([]record) ([]record, error) {
	return func(in []record) ([]record, error) {
		return append(in, record{ID: id, Count: len(in) + 1}), nil
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := NewFileStore[record](filepath.Join(t.TempDir(), "orders.json"))
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func TestFileStoreCorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewFileStore[record](path)
	got, _ := s.Load(context.Background())
	if len(got) != 0 {
		t.Fatalf("expected empty list for corrupt file, got %d", len(got))
	}
	if err := s.Update(context.Background(), appendRecord("a")); err != nil {
		t.Fatalf("update over corrupt file: %v", err)
	}
	got, _ = s.Load(context.Background())
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected rewrite to recover the file, got %+v", got)
	}
}

func TestFileStoreSkipsMalformedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a","count":1}, 7, {"id":"b","count":2}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, _ := NewFileStore[record](path).Load(context.Background())
	if len(got) != 2 || got[1].ID != "b" {
		t.Fatalf("expected malformed entry skipped, got %+v", got)
	}
}

func TestFileStoreInitWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.json")
	s := NewFileStore[record](path)
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[]\n" {
		t.Fatalf("expected empty array, got %q", data)
	}
}

func TestFileStoreUpdateErrorLeavesFileUntouched(t *testing.T) {
	s := NewFileStore[record](filepath.Join(t.TempDir(), "orders.json"))
	ctx := context.Background()
	if err := s.Update(ctx, appendRecord("a")); err != nil {
		t.Fatalf("update: %v", err)
	}
	boom := errors.New("boom")
	err := s.Update(ctx, func(in []record) ([]record, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	got, _ := s.Load(ctx)
	if len(got) != 1 {
		t.Fatalf("expected previous contents kept, got %+v", got)
	}
}

func TestFileStoreConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	s := NewFileStore[record](filepath.Join(t.TempDir(), "orders.json"))
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Update(ctx, appendRecord("x")); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()
	got, _ := s.Load(ctx)
	if len(got) != 20 {
		t.Fatalf("expected 20 records, got %d", len(got))
	}
}

func TestPebbleStoreRoundTripAndShrink(t *testing.T) {
	s, err := OpenPebble[record](filepath.Join(t.TempDir(), "orders.pebble"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Update(ctx, appendRecord(id)); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[2].ID != "c" {
		t.Fatalf("unexpected records %+v", got)
	}

	if err := s.Update(ctx, func(in []record) ([]record, error) { return in[:1], nil }); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	got, _ = s.Load(ctx)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected shrink to delete trailing keys, got %+v", got)
	}
}

func TestPebbleStoreShrinkDropsUnreadableRecords(t *testing.T) {
	s, err := OpenPebble[record](filepath.Join(t.TempDir(), "orders.pebble"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Update(ctx, appendRecord(id)); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if err := s.db.Set(recordKey(1), []byte("{not json"), pebble.Sync); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if err := s.Update(ctx, func(in []record) ([]record, error) { return in[:1], nil }); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	got, _ := s.Load(ctx)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only a to remain, got %+v", got)
	}
}

func TestUpdateNoChangeSkipsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	s := NewFileStore[record](path)
	ctx := context.Background()
	noChange := func([]record) ([]record, error) { return nil, ErrNoChange }
	if err := s.Update(ctx, noChange); err != nil {
		t.Fatalf("expected nil for no change, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no file written, got %v", err)
	}

	p, err := OpenPebble[record](filepath.Join(t.TempDir(), "orders.pebble"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()
	if err := p.Update(ctx, appendRecord("a")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := p.Update(ctx, noChange); err != nil {
		t.Fatalf("expected nil for no change, got %v", err)
	}
	got, _ := p.Load(ctx)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected records kept, got %+v", got)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	s, closer, err := Open[record]("file", dir, "cart")
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer closer.Close()
	if fs, ok := s.(*FileStore[record]); !ok || fs.Path() != filepath.Join(dir, "cart.json") {
		t.Fatalf("expected file store at cart.json")
	}
	if _, _, err := Open[record]("mongo", dir, "cart"); err == nil {
		t.Fatalf("expected unsupported backend error")
	}
}
