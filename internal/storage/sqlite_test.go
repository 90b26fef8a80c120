package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/superteamvn/stvbot/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetDocument(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:       "kb:abc",
		Title:    "grants.md",
		Content:  "Superteam grant program details",
		Metadata: map[string]interface{}{"source": "upload"},
	}
	if err := s.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDocument(ctx, "kb:abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "grants.md" || got.Content != doc.Content {
		t.Fatalf("got %+v", got)
	}
	if got.Metadata["source"] != "upload" {
		t.Fatalf("metadata = %v", got.Metadata)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{ID: "kb:abc", Content: "v1"}
	if err := s.UpsertDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	created := doc.CreatedAt

	doc2 := &models.Document{ID: "kb:abc", Content: "v2", CreatedAt: created}
	if err := s.UpsertDocument(ctx, doc2); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetDocument(ctx, "kb:abc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "v2" {
		t.Fatalf("content = %q, want v2", got.Content)
	}

	n, _ := s.CountDocuments(ctx)
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetDocument(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChunkLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.UpsertDocument(ctx, &models.Document{ID: "kb:doc", Content: "full text"}); err != nil {
		t.Fatal(err)
	}
	chunks := []*models.DocumentChunk{
		{ID: "c0", DocumentID: "kb:doc", Content: "first part", ChunkIndex: 0},
		{ID: "c1", DocumentID: "kb:doc", Content: "second part", ChunkIndex: 1},
	}
	if err := s.BatchCreateChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}

	got, err := s.ChunksByDocument(ctx, "kb:doc")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ChunkIndex != 0 || got[1].ChunkIndex != 1 {
		t.Fatalf("got %+v", got)
	}

	single, err := s.GetChunk(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if single.Content != "second part" {
		t.Fatalf("chunk content = %q", single.Content)
	}

	if err := s.DeleteChunksByDocument(ctx, "kb:doc"); err != nil {
		t.Fatal(err)
	}
	n, _ := s.CountChunks(ctx)
	if n != 0 {
		t.Fatalf("chunks remaining = %d", n)
	}
	if _, err := s.GetChunk(ctx, "c0"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListDocumentsPagination(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.UpsertDocument(ctx, &models.Document{ID: id, Content: id}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.ListDocuments(ctx, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	rest, err := s.ListDocuments(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 {
		t.Fatalf("second page size = %d, want 1", len(rest))
	}
}

func TestSaveAndListTweets(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	now := time.Now()
	older := &models.Tweet{
		ID: "t1", Content: "first", Status: models.TweetStatusSimulated,
		EngagementScore: 60, BestTime: "9:00 AM", CreatedAt: now.Add(-time.Hour),
	}
	newer := &models.Tweet{
		ID: "t2", Content: "second", Status: models.TweetStatusPublished,
		EngagementScore: 80, CreatedAt: now, PublishedAt: &now,
	}
	if err := s.SaveTweet(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTweet(ctx, newer); err != nil {
		t.Fatal(err)
	}

	tweets, err := s.ListRecentTweets(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tweets) != 2 {
		t.Fatalf("got %d tweets", len(tweets))
	}
	if tweets[0].ID != "t2" {
		t.Fatalf("newest first: got %s", tweets[0].ID)
	}
	if tweets[0].PublishedAt == nil {
		t.Fatal("published_at should round-trip")
	}
	if tweets[1].EngagementScore != 60 || tweets[1].BestTime != "9:00 AM" {
		t.Fatalf("got %+v", tweets[1])
	}
}
