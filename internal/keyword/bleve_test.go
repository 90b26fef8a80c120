package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "kb.bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestBleveIndexSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Index(ctx, "c1", "grants", "Superteam runs a grants program for Solana builders"); err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(ctx, "c2", "events", "Monthly meetup in Ho Chi Minh City"); err != nil {
		t.Fatal(err)
	}

	results, err := idx.Search(ctx, "grants", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "c1" {
		t.Fatalf("got %v, want single hit c1", results)
	}
}

func TestBleveSearchTitleOutranksContent(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	idx.Index(ctx, "title-hit", "solana validators", "general notes")
	idx.Index(ctx, "content-hit", "notes", "some details about validators here")

	results, err := idx.Search(ctx, "validators", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "title-hit" {
		t.Fatalf("title match should rank first, got %s", results[0].ID)
	}
}

func TestBleveDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	idx.Index(ctx, "c1", "", "ephemeral content")
	if err := idx.Delete(ctx, []string{"c1"}); err != nil {
		t.Fatal(err)
	}
	results, err := idx.Search(ctx, "ephemeral", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("got %v after delete, want none", results)
	}
}

func TestBleveReopenExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.bleve")
	ctx := context.Background()

	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	idx.Index(ctx, "c1", "", "persistent entry")
	idx.Close()

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	results, err := reopened.Search(ctx, "persistent", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results after reopen, want 1", len(results))
	}
}
