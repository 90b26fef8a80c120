// Package storage persists knowledge-base documents, their chunks, and tweet
// history in SQLite.
package storage

import (
	"context"
	"errors"

	"github.com/superteamvn/stvbot/internal/models"
)

// ErrNotFound is returned when a requested document or chunk does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines persistence for documents, chunks and tweets.
type Storage interface {
	UpsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	BatchCreateChunks(ctx context.Context, chunks []*models.DocumentChunk) error
	GetChunk(ctx context.Context, id string) (*models.DocumentChunk, error)
	ChunksByDocument(ctx context.Context, docID string) ([]*models.DocumentChunk, error)
	DeleteChunksByDocument(ctx context.Context, docID string) error

	SaveTweet(ctx context.Context, tweet *models.Tweet) error
	ListRecentTweets(ctx context.Context, limit int) ([]*models.Tweet, error)

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
