package shardstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNodes() []NodeAnalysis {
	return []NodeAnalysis{
		{
			NodeID: "n1",
			Street: StreetFlop,
			Board:  "AhKdQc",
			ActionsOOP: []ActionFrequency{
				{Action: "check", Frequency: 0.6, EV: 1.2},
				{Action: "bet 33", Frequency: 0.4, EV: 1.5},
			},
		},
	}
}

type countingFetcher struct {
	mu       sync.Mutex
	calls    int32
	blob     []byte
	err      error
	fetchGap time.Duration
}

func (f *countingFetcher) FetchRange(ctx context.Context, bucket, key string, r ByteRange) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.fetchGap > 0 {
		time.Sleep(f.fetchGap)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.blob, nil
}

func TestStoreGetDecodesAndCaches(t *testing.T) {
	blob, err := EncodeShardCompressed(sampleNodes())
	require.NoError(t, err)

	fetcher := &countingFetcher{blob: blob}
	store, err := New(fetcher, 4)
	require.NoError(t, err)

	nodes, err := store.Get(context.Background(), "bucket", "key1", ByteRange{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "n1", nodes[0].NodeID)

	_, err = store.Get(context.Background(), "bucket", "key1", ByteRange{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&fetcher.calls), "second Get must hit the cache, not re-fetch")
}

func TestStoreFetchErrorNotCached(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("boom")}
	store, err := New(fetcher, 4)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "bucket", "key1", ByteRange{})
	require.Error(t, err)
	var fetchErr *ShardFetchError
	require.ErrorAs(t, err, &fetchErr)

	// Retry after a failure should attempt the fetch again (not poison the cache).
	_, err = store.Get(context.Background(), "bucket", "key1", ByteRange{})
	require.Error(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&fetcher.calls))
}

func TestStoreDecodeErrorNotCached(t *testing.T) {
	fetcher := &countingFetcher{blob: []byte("not a zstd frame")}
	store, err := New(fetcher, 4)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "bucket", "key1", ByteRange{})
	require.Error(t, err)
	var decodeErr *ShardDecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestStoreCoalescesConcurrentFetches(t *testing.T) {
	blob, err := EncodeShardCompressed(sampleNodes())
	require.NoError(t, err)

	fetcher := &countingFetcher{blob: blob, fetchGap: 20 * time.Millisecond}
	store, err := New(fetcher, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	const n = 10
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			nodes, err := store.Get(context.Background(), "bucket", "shared-key", ByteRange{})
			assert.NoError(t, err)
			assert.Len(t, nodes, 1)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&fetcher.calls), "concurrent Gets for the same key must coalesce into one fetch")
}

func TestStorePeek(t *testing.T) {
	blob, err := EncodeShardCompressed(sampleNodes())
	require.NoError(t, err)
	fetcher := &countingFetcher{blob: blob}
	store, err := New(fetcher, 4)
	require.NoError(t, err)

	_, ok := store.Peek("bucket", "key1")
	assert.False(t, ok)

	_, err = store.Get(context.Background(), "bucket", "key1", ByteRange{})
	require.NoError(t, err)

	nodes, ok := store.Peek("bucket", "key1")
	assert.True(t, ok)
	assert.Len(t, nodes, 1)
}
