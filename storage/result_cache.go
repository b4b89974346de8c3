package storage

import (
	"fmt"
	"sync/atomic"

	"github.com/colorfulnotion/cairotrace/common"
	"github.com/colorfulnotion/cairotrace/log"
)

const module = log.CacheMonitoring

var resultPrefix = []byte("run:")

// ResultCache stores serialized run results keyed by the compiler version,
// the program source and its arguments. Only encoded bytes cross requests.
type ResultCache struct {
	store  *PersistenceStore
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewResultCache opens a cache at path, or in memory when path is "".
func NewResultCache(path string) (*ResultCache, error) {
	store, err := NewPersistenceStore(path)
	if err != nil {
		return nil, err
	}
	return &ResultCache{store: store}, nil
}

// ResultKey derives the cache key of one run.
func ResultKey(compilerVersion, source, args string) []byte {
	h := common.Blake2HashParts(compilerVersion, source, args)
	return append(append([]byte{}, resultPrefix...), h.Bytes()...)
}

func (c *ResultCache) Get(key []byte) ([]byte, bool, error) {
	v, ok, err := c.store.Get(key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	log.Trace(module, "cache lookup", "key", fmt.Sprintf("%x", key), "hit", ok)
	return v, ok, nil
}

func (c *ResultCache) Put(key []byte, value []byte) error {
	return c.store.Put(key, value)
}

// Evict drops one cached result.
func (c *ResultCache) Evict(key []byte) error {
	return c.store.Delete(key)
}

// Len counts cached results.
func (c *ResultCache) Len() (int, error) {
	keys, err := c.store.KeysWithPrefix(resultPrefix)
	return len(keys), err
}

func (c *ResultCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) Close() error {
	return c.store.Close()
}
