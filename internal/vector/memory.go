package vector

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type entry struct {
	ID     string
	Vector []float32
}

// MemoryIndex is a brute-force inner product index. With unit-normalized
// embeddings inner product equals cosine similarity. It handles the knowledge
// base sizes this service sees without needing a native ANN library.
type MemoryIndex struct {
	mu      sync.RWMutex
	dims    int
	entries []entry
}

// NewMemoryIndex creates an empty index for vectors of the given dimension.
func NewMemoryIndex(dims int) (*MemoryIndex, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vector dimensions must be positive, got %d", dims)
	}
	return &MemoryIndex{dims: dims}, nil
}

// LoadMemoryIndex reads an index previously written by Save. A missing file
// yields an empty index rather than an error.
func LoadMemoryIndex(path string, dims int) (*MemoryIndex, error) {
	idx, err := NewMemoryIndex(dims)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	defer f.Close()

	var stored struct {
		Dims    int
		Entries []entry
	}
	if err := gob.NewDecoder(f).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode vector index %s: %w", path, err)
	}
	if stored.Dims != dims {
		return nil, fmt.Errorf("vector index %s has dimension %d, expected %d", path, stored.Dims, dims)
	}
	idx.entries = stored.Entries
	return idx, nil
}

func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if len(vectors[i]) != m.dims {
			return fmt.Errorf("vector %q has dimension %d, expected %d", id, len(vectors[i]), m.dims)
		}
		vec := make([]float32, m.dims)
		copy(vec, vectors[i])
		m.entries = append(m.entries, entry{ID: id, Vector: vec})
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]*Result, error) {
	if len(query) != m.dims {
		return nil, fmt.Errorf("query has dimension %d, expected %d", len(query), m.dims)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}

	results := make([]*Result, len(m.entries))
	for i, e := range m.entries {
		results[i] = &Result{ID: e.ID, Score: CosineSimilarity(query, e.Vector)}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (m *MemoryIndex) Remove(ctx context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// Count returns the number of stored vectors.
func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Save writes the index to path atomically via a temp file rename.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create vector index file: %w", err)
	}
	stored := struct {
		Dims    int
		Entries []entry
	}{Dims: m.dims, Entries: m.entries}
	if err := gob.NewEncoder(f).Encode(&stored); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode vector index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (m *MemoryIndex) Close() error { return nil }
