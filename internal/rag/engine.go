package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/embedding"
	"github.com/superteamvn/stvbot/internal/llm"
	"github.com/superteamvn/stvbot/internal/models"
	"github.com/superteamvn/stvbot/internal/storage"
	"github.com/superteamvn/stvbot/internal/vector"
)

// Canned answers used when retrieval does not support a generated one.
const (
	answerNoContext     = "I don't have enough information to answer this question accurately."
	answerLowConfidence = "While I have some information, I'm not confident enough to provide an accurate answer to this question."
)

// Engine retrieves relevant chunks for a question and generates an answer when
// retrieval confidence clears the threshold.
type Engine struct {
	embedder  embedding.Embedder
	vectors   vector.Index
	store     storage.Storage
	client    llm.Client
	topK      int
	threshold float64
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger enables debug logging of retrieval and gating decisions.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine wires the question answering pipeline. threshold is the minimum
// confidence below which the engine declines to generate.
func NewEngine(embedder embedding.Embedder, vectors vector.Index, store storage.Storage, client llm.Client, topK int, threshold float64, opts ...Option) *Engine {
	e := &Engine{
		embedder:  embedder,
		vectors:   vectors,
		store:     store,
		client:    client,
		topK:      topK,
		threshold: threshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query answers the question using the engine's configured threshold.
func (e *Engine) Query(ctx context.Context, question string) (*models.Answer, error) {
	return e.QueryWithThreshold(ctx, question, e.threshold)
}

// QueryWithThreshold answers the question, declining when retrieval confidence
// falls below the given threshold. Declined answers still report the computed
// confidence, so callers can show it.
func (e *Engine) QueryWithThreshold(ctx context.Context, question string, threshold float64) (*models.Answer, error) {
	queryVec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := e.vectors.Search(ctx, queryVec, e.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return &models.Answer{Text: answerNoContext, Confidence: 0}, nil
	}

	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	confidence := Confidence(scores)

	e.logger.Debug("retrieval done",
		zap.String("question", question),
		zap.Int("hits", len(hits)),
		zap.Float64("confidence", confidence))

	if confidence < threshold {
		return &models.Answer{Text: answerLowConfidence, Confidence: confidence}, nil
	}

	contexts := make([]string, 0, len(hits))
	sources := make([]string, 0, len(hits))
	seen := make(map[string]bool)
	for _, h := range hits {
		chunk, err := e.store.GetChunk(ctx, h.ID)
		if err != nil {
			e.logger.Warn("retrieved chunk missing from storage", zap.String("chunk_id", h.ID), zap.Error(err))
			continue
		}
		contexts = append(contexts, chunk.Content)
		if title := e.sourceTitle(ctx, chunk.DocumentID); title != "" && !seen[title] {
			seen[title] = true
			sources = append(sources, title)
		}
	}
	if len(contexts) == 0 {
		return &models.Answer{Text: answerNoContext, Confidence: 0}, nil
	}

	text, err := e.client.GenerateContent(ctx, BuildPrompt(contexts, question))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &models.Answer{
		Text:       strings.TrimSpace(text),
		Confidence: confidence,
		Sources:    sources,
	}, nil
}

func (e *Engine) sourceTitle(ctx context.Context, docID string) string {
	doc, err := e.store.GetDocument(ctx, docID)
	if err != nil {
		return docID
	}
	if doc.Title != "" {
		return doc.Title
	}
	return doc.ID
}
