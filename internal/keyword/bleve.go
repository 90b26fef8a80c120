package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

type chunkDoc struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BleveIndex stores chunk text in a Bleve index on disk. An existing index at
// the same path is reopened so unchanged documents survive restarts.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex opens or creates a Bleve index at path.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bleve index: %w", err)
		}
		return &BleveIndex{index: idx}, nil
	}

	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	// Standard analyzer: lowercase and tokenize without stemming, so queries
	// match exact words in mixed English/Vietnamese content.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("content", text)
	im.DefaultMapping = doc

	idx, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveIndex{index: idx}, nil
}

func (b *BleveIndex) Index(ctx context.Context, id, title, content string) error {
	return b.index.Index(id, chunkDoc{Title: title, Content: content})
}

// Search matches query against title and content, with title hits weighted
// higher, and returns up to limit results sorted by score.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if limit <= 0 {
		return nil, nil
	}

	titleQ := bleve.NewMatchQuery(query)
	titleQ.SetField("title")
	titleQ.SetBoost(2.0)
	contentQ := bleve.NewMatchQuery(query)
	contentQ.SetField("content")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(titleQ, contentQ))
	req.Size = limit

	res, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	out := make([]*Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

func (b *BleveIndex) Delete(ctx context.Context, ids []string) error {
	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.index.Batch(batch)
}

func (b *BleveIndex) Close() error {
	return b.index.Close()
}
