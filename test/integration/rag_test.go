// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/superteamvn/stvbot/internal/config"
	"github.com/superteamvn/stvbot/internal/embedding"
	"github.com/superteamvn/stvbot/internal/ingest"
	"github.com/superteamvn/stvbot/internal/keyword"
	"github.com/superteamvn/stvbot/internal/llm"
	"github.com/superteamvn/stvbot/internal/models"
	"github.com/superteamvn/stvbot/internal/rag"
	"github.com/superteamvn/stvbot/internal/storage"
	"github.com/superteamvn/stvbot/internal/vector"
)

type pipeline struct {
	store    storage.Storage
	ingestor *ingest.Ingestor
	engine   *rag.Engine
	client   *llm.FakeClient
	vectors  *vector.MemoryIndex
}

func newPipeline(t *testing.T, threshold float64) *pipeline {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DatabasePath:   filepath.Join(dir, "db.sqlite"),
			BleveIndexPath: filepath.Join(dir, "bleve"),
		},
		Embedding: config.EmbeddingConfig{Dimensions: 8},
		RAG:       config.RAGConfig{TopK: 3, ChunkSize: 50, ChunkOverlap: 5},
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	embedder := embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	vectors, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		t.Fatal(err)
	}
	kwIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kwIndex.Close() })

	client := &llm.FakeClient{ContentResponse: "Superteam Vietnam is a community of Solana builders."}
	engine := rag.NewEngine(embedder, vectors, store, client, cfg.RAG.TopK, threshold)
	ingestor := ingest.NewIngestor(store, embedder, vectors, kwIndex, nil, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	return &pipeline{store: store, ingestor: ingestor, engine: engine, client: client, vectors: vectors}
}

func TestIngestThenQuery(t *testing.T) {
	p := newPipeline(t, 0.3)
	ctx := context.Background()

	text := "superteam vietnam runs grant programs for solana builders"
	err := p.ingestor.IngestDocument(ctx, &models.DocumentInput{
		ID: "kb1", Title: "grants.txt", Content: text,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.vectors.Count() < 1 {
		t.Fatal("nothing indexed")
	}

	// The mock embedder is deterministic, so querying with the exact chunk
	// text retrieves it with similarity 1 and the answer gate opens.
	answer, err := p.engine.Query(ctx, text)
	if err != nil {
		t.Fatal(err)
	}
	if answer.Text != p.client.ContentResponse {
		t.Errorf("answer = %q", answer.Text)
	}
	if len(answer.Sources) != 1 || answer.Sources[0] != "grants.txt" {
		t.Errorf("sources = %v", answer.Sources)
	}
	if len(p.client.Prompts) != 1 || !strings.Contains(p.client.Prompts[0], text) {
		t.Errorf("retrieved context missing from prompt")
	}
}

func TestQueryDeclinesBelowThreshold(t *testing.T) {
	p := newPipeline(t, 0.9)
	ctx := context.Background()

	text := "superteam vietnam runs grant programs for solana builders"
	err := p.ingestor.IngestDocument(ctx, &models.DocumentInput{
		ID: "kb1", Title: "grants.txt", Content: text,
	})
	if err != nil {
		t.Fatal(err)
	}

	answer, err := p.engine.Query(ctx, text)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer.Text, "not confident enough") {
		t.Errorf("answer = %q, want low-confidence decline", answer.Text)
	}
	if len(p.client.Prompts) != 0 {
		t.Errorf("model should not be called below threshold")
	}
}

func TestQueryEmptyKnowledgeBase(t *testing.T) {
	p := newPipeline(t, 0.3)

	answer, err := p.engine.Query(context.Background(), "anything at all")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer.Text, "don't have enough information") {
		t.Errorf("answer = %q, want no-context decline", answer.Text)
	}
}

func TestDeleteRemovesFromRetrieval(t *testing.T) {
	p := newPipeline(t, 0.3)
	ctx := context.Background()

	text := "superteam vietnam runs grant programs for solana builders"
	err := p.ingestor.IngestDocument(ctx, &models.DocumentInput{
		ID: "kb1", Title: "grants.txt", Content: text,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ingestor.Delete(ctx, "kb1"); err != nil {
		t.Fatal(err)
	}

	if p.vectors.Count() != 0 {
		t.Errorf("vector count = %d after delete", p.vectors.Count())
	}
	answer, err := p.engine.Query(ctx, text)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(answer.Text, "don't have enough information") {
		t.Errorf("answer = %q, want no-context decline after delete", answer.Text)
	}
}
