// Package keyword provides full-text search over indexed chunks using Bleve.
package keyword

import "context"

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}

// Index is a full-text index over document chunks.
type Index interface {
	Index(ctx context.Context, id, title, content string) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, ids []string) error
	Close() error
}
