// Package store provides bounded in-memory deduplication of normalized keys.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DedupStore remembers up to capacity keys. The bloom filter answers most
// misses without touching the map; the LRU decides which key to forget first.
type DedupStore struct {
	keys              map[string]struct{}
	bloom             *bloom.BloomFilter
	lru               *lru.Cache[string, struct{}]
	mutex             sync.Mutex
	capacity          int
	falsePositiveRate float64
}

// NewDedupStore creates a store for capacity keys. Non-positive capacities are raised to 1.
func NewDedupStore(capacity int, falsePositiveRate float64) *DedupStore {
	if capacity < 1 {
		capacity = 1
	}

	ds := &DedupStore{
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
	}
	ds.reset()
	return ds
}

// AddIfAbsent remembers key and reports whether it was new.
func (ds *DedupStore) AddIfAbsent(key string) bool {
	ds.mutex.Lock()
	defer ds.mutex.Unlock()

	if ds.has(key) {
		ds.lru.Get(key)
		return false
	}

	ds.keys[key] = struct{}{}
	ds.bloom.AddString(key)
	ds.lru.Add(key, struct{}{})
	return true
}

func (ds *DedupStore) has(key string) bool {
	if !ds.bloom.TestString(key) {
		return false
	}
	_, exists := ds.keys[key]
	return exists
}

func (ds *DedupStore) reset() {
	ds.keys = make(map[string]struct{}, ds.capacity)
	ds.bloom = bloom.NewWithEstimates(uint(ds.capacity), ds.falsePositiveRate)

	// The bloom filter cannot forget; evicted keys only cost an extra map lookup.
	cache, _ := lru.NewWithEvict[string, struct{}](ds.capacity, func(key string, _ struct{}) {
		delete(ds.keys, key)
	})
	ds.lru = cache
}
