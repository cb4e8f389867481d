package pebble

import (
	"os"
	"sync"

	"github.com/cockroachdb/pebble"
)

// KVStore is a pebble-backed implementation of db.KVStore.
type KVStore struct {
	db     *pebble.DB
	closed bool
	mu     sync.RWMutex
	tmpDir string
}

// NewKVStoreAt opens (or creates) a pebble database rooted at path.
func NewKVStoreAt(path string) (*KVStore, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(64 * 1024 * 1024), // 64MB
		MemTableSize: 32 * 1024 * 1024,                  // 32MB
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	return &KVStore{db: db}, nil
}

// NewKVStore opens a pebble database in a fresh temporary directory. It
// exists for tests and throwaway stores; production callers use
// NewKVStoreAt with a configured directory.
func NewKVStore() (*KVStore, error) {
	dir, err := os.MkdirTemp("", "jrocnet-pebble-*")
	if err != nil {
		return nil, err
	}
	store, err := NewKVStoreAt(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	store.tmpDir = dir
	return store, nil
}

func (p *KVStore) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}

	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

func (p *KVStore) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Set(key, value, pebble.Sync)
}

func (p *KVStore) Delete(key []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.db.Delete(key, pebble.Sync)
}

func (p *KVStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	err := p.db.Close()
	if p.tmpDir != "" {
		os.RemoveAll(p.tmpDir)
	}
	return err
}
