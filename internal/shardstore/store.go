package shardstore

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ByteRange is an optional [offset, offset+length) window into a blob.
type ByteRange struct {
	Offset, Length int64
	Present        bool
}

// Fetcher is the object-store collaborator this package depends on (spec §6
// "Object store"). Implementations live outside the core.
type Fetcher interface {
	FetchRange(ctx context.Context, bucket, key string, r ByteRange) ([]byte, error)
}

// Store is the per-invocation shard cache described in spec §4.4: it
// fetches, decompresses and decodes shards, caching the decoded result by
// (bucket, key) for the lifetime of one pipeline invocation, with
// single-flight coalescing of concurrent requests for the same key. The
// cache never evicts within an invocation -- maxShards only sizes its
// initial capacity, since the number of distinct shards one hand touches is
// small and bounded by the hand's own street count, not by a cache limit.
//
// A Store must not be reused across pipeline invocations; construct one
// per hand via New.
type Store struct {
	fetcher Fetcher
	mu      sync.RWMutex
	cache   map[string][]NodeAnalysis
	group   singleflight.Group
}

// New builds a shard Store backed by fetcher. maxShards sizes the cache
// map's initial capacity as a hint only; it does not bound how many shards
// the cache will hold (spec §4.4 "advisory cap; no eviction within an
// invocation by default").
func New(fetcher Fetcher, maxShards int) (*Store, error) {
	if maxShards <= 0 {
		maxShards = 8
	}
	return &Store{fetcher: fetcher, cache: make(map[string][]NodeAnalysis, maxShards)}, nil
}

func cacheKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *Store) get(ck string) ([]NodeAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cache[ck]
	return v, ok
}

func (s *Store) put(ck string, nodes []NodeAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[ck] = nodes
}

// Get fetches and decodes the shard at (bucket, key), applying byteRange if
// present, and caching the decoded []NodeAnalysis for subsequent callers in
// this invocation. Concurrent Get calls for the same key coalesce into a
// single fetch+decode (spec §4.4 concurrency clause); the cache is not
// populated when the underlying fetch or decode fails (spec §4.4 errors
// clause), so a failed key is retried on the next Get.
func (s *Store) Get(ctx context.Context, bucket, key string, byteRange ByteRange) ([]NodeAnalysis, error) {
	ck := cacheKey(bucket, key)

	if v, ok := s.get(ck); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(ck, func() (interface{}, error) {
		if v, ok := s.get(ck); ok {
			return v, nil
		}

		raw, err := s.fetcher.FetchRange(ctx, bucket, key, byteRange)
		if err != nil {
			return nil, &ShardFetchError{Bucket: bucket, Key: key, Err: err}
		}

		nodes, err := DecodeShard(raw)
		if err != nil {
			return nil, &ShardDecodeError{Bucket: bucket, Key: key, Reason: "zstd or binary decode failed", Err: err}
		}

		s.put(ck, nodes)
		return nodes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]NodeAnalysis), nil
}

// Peek returns a previously cached shard without fetching, used by the
// RIVER local-search path which must reuse the exact shard its preceding
// TURN match already populated (spec §4.5 step 6).
func (s *Store) Peek(bucket, key string) ([]NodeAnalysis, bool) {
	return s.get(cacheKey(bucket, key))
}
