// Package vector implements dense vector search over document chunk embeddings.
package vector

import "context"

// Result is one vector search hit.
type Result struct {
	ID    string
	Score float64
}

// Index stores embeddings and answers nearest-neighbor queries.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Count() int
	Save(path string) error
	Close() error
}
