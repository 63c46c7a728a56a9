// Package store defines the three external collaborators this pipeline
// reads from (spec §6: object store, vector index, document store) and
// provides in-memory/local-filesystem fakes so tests and cmd/enrich can
// run without a real S3 bucket or vector database. Grounded on the
// teacher's adapter style of pairing a small interface with a concrete
// implementation (sdk/spawner/spawner.go's BotSpawner next to its Process
// abstraction) — here the "concrete" side is a fake rather than a live
// process, since the real object store/vector index/doc store are named
// external collaborators (spec §1) out of scope for the core.
package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/railbird/solver-enrichment/internal/features"
	"github.com/railbird/solver-enrichment/internal/retriever"
	"github.com/railbird/solver-enrichment/internal/shardstore"
)

// ObjectStore is the ranged-read blob store collaborator (spec §6 "Object
// store"). It is exactly shardstore.Fetcher; restated here so callers can
// depend on internal/store without reaching into internal/shardstore for
// the contract name.
type ObjectStore = shardstore.Fetcher

// VectorIndex is the nearest-neighbour search collaborator (spec §6
// "Vector index"). It is exactly retriever.VectorIndex.
type VectorIndex = retriever.VectorIndex

// DocStore is the single-document lookup collaborator used to resolve a
// FLOP node directly by id when a retriever match names one (spec §6
// "Document store (for FLOP nodes)"). The core never writes this store.
type DocStore interface {
	FindOne(ctx context.Context, nodeID, street string) (*shardstore.NodeAnalysis, error)
}

// LocalObjectStore serves shard blobs from a local directory, keyed by
// "<bucket>/<key>" relative paths. Byte ranges are honoured when Present,
// otherwise the whole file is returned. Intended for cmd/enrich and tests,
// not production use.
type LocalObjectStore struct {
	root string
}

// NewLocalObjectStore builds a LocalObjectStore rooted at dir.
func NewLocalObjectStore(dir string) *LocalObjectStore {
	return &LocalObjectStore{root: dir}
}

// FetchRange implements ObjectStore.
func (s *LocalObjectStore) FetchRange(_ context.Context, bucket, key string, r shardstore.ByteRange) ([]byte, error) {
	path := filepath.Join(s.root, bucket, key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("local object store: read %s: %w", path, err)
	}
	if !r.Present {
		return data, nil
	}
	end := r.Offset + r.Length
	if r.Offset < 0 || end > int64(len(data)) {
		return nil, fmt.Errorf("local object store: byte range [%d,%d) out of bounds for %s (len %d)", r.Offset, end, path, len(data))
	}
	return data[r.Offset:end], nil
}

// indexedRecord is one entry held by InMemoryVectorIndex.
type indexedRecord struct {
	id     string
	vector features.Vector
	filter retriever.Filter
	meta   retriever.LeanNodeMeta
}

// InMemoryVectorIndex is a brute-force VectorIndex: linear scan, exact
// equality filtering, cosine similarity scoring. Fine for the record
// counts a test fixture or a single hand's enrichment run touches; not
// meant to emulate the real index's performance characteristics.
type InMemoryVectorIndex struct {
	mu      sync.RWMutex
	records map[string][]indexedRecord // keyed by collection
}

// NewInMemoryVectorIndex builds an empty index.
func NewInMemoryVectorIndex() *InMemoryVectorIndex {
	return &InMemoryVectorIndex{records: make(map[string][]indexedRecord)}
}

// Add registers one record under a collection (spec §6 collections are
// keyed by street: flop_nodes/turn_nodes/river_nodes).
func (idx *InMemoryVectorIndex) Add(collection string, id string, vector features.Vector, filter retriever.Filter, meta retriever.LeanNodeMeta) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.records[collection] = append(idx.records[collection], indexedRecord{id: id, vector: vector, filter: filter, meta: meta})
}

func filterMatches(want, have retriever.Filter) bool {
	if want.ActionSequence != "" && want.ActionSequence != have.ActionSequence {
		return false
	}
	if want.Street != "" && want.Street != have.Street {
		return false
	}
	if want.PotType != "" && want.PotType != have.PotType {
		return false
	}
	if want.FlopArchetype != "" && want.FlopArchetype != have.FlopArchetype {
		return false
	}
	if want.HasOOPBucket && want.OOPBucket != have.OOPBucket {
		return false
	}
	if want.HasIPBucket && want.IPBucket != have.IPBucket {
		return false
	}
	return true
}

func cosineSimilarity(a, b features.Vector) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Search implements VectorIndex.
func (idx *InMemoryVectorIndex) Search(_ context.Context, collection string, vector features.Vector, filter retriever.Filter, limit int, scoreThreshold float64) ([]retriever.SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var results []retriever.SearchResult
	for _, rec := range idx.records[collection] {
		if !filterMatches(filter, rec.filter) {
			continue
		}
		score := cosineSimilarity(vector, rec.vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, retriever.SearchResult{ID: rec.id, Score: score, Payload: rec.meta})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// InMemoryDocStore is a map-backed DocStore fake, keyed by "street/nodeId".
type InMemoryDocStore struct {
	mu    sync.RWMutex
	nodes map[string]shardstore.NodeAnalysis
}

// NewInMemoryDocStore builds an empty doc store.
func NewInMemoryDocStore() *InMemoryDocStore {
	return &InMemoryDocStore{nodes: make(map[string]shardstore.NodeAnalysis)}
}

func docKey(nodeID, street string) string { return street + "/" + nodeID }

// Put registers a node for later FindOne lookup.
func (d *InMemoryDocStore) Put(node shardstore.NodeAnalysis) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[docKey(node.NodeID, string(node.Street))] = node
}

// FindOne implements DocStore. The core only ever queries street="FLOP"
// (spec §6), but the fake honours whatever street is asked for.
func (d *InMemoryDocStore) FindOne(_ context.Context, nodeID, street string) (*shardstore.NodeAnalysis, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	node, ok := d.nodes[docKey(nodeID, street)]
	if !ok {
		return nil, nil
	}
	return &node, nil
}
