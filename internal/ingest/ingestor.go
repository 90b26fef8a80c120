package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/embedding"
	"github.com/superteamvn/stvbot/internal/extract"
	"github.com/superteamvn/stvbot/internal/fileid"
	"github.com/superteamvn/stvbot/internal/keyword"
	"github.com/superteamvn/stvbot/internal/models"
	"github.com/superteamvn/stvbot/internal/storage"
	"github.com/superteamvn/stvbot/internal/vector"
)

// Metadata keys recorded on file-backed documents.
const (
	metaSourcePath  = "source_path"
	metaSourceMtime = "source_mtime"
	metaSourceSize  = "source_size"
)

// Ingestor stores documents, chunks them, embeds the chunks and feeds both
// search indices.
type Ingestor struct {
	store     storage.Storage
	embedder  embedding.Embedder
	vectors   vector.Index
	keywords  keyword.Index
	extractor *extract.Extractor
	chunker   *Chunker
	logger    *zap.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger enables debug logging of ingest events.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// NewIngestor wires the ingest pipeline. extractor may be nil, in which case
// every file is read as plain text.
func NewIngestor(store storage.Storage, embedder embedding.Embedder, vectors vector.Index, keywords keyword.Index, extractor *extract.Extractor, chunkSize, chunkOverlap int, opts ...Option) *Ingestor {
	in := &Ingestor{
		store:     store,
		embedder:  embedder,
		vectors:   vectors,
		keywords:  keywords,
		extractor: extractor,
		chunker:   NewChunker(chunkSize, chunkOverlap),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// IngestDocument stores the document, embeds its chunks and indexes them.
// A document whose text is shorter than one chunk window still gets a single
// chunk so it remains retrievable.
func (in *Ingestor) IngestDocument(ctx context.Context, input *models.DocumentInput) error {
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	doc := &models.Document{
		ID:       input.ID,
		Title:    input.Title,
		Content:  Preprocess(input.Content),
		Metadata: input.Metadata,
	}
	if err := in.store.UpsertDocument(ctx, doc); err != nil {
		return fmt.Errorf("store document: %w", err)
	}

	chunks := in.chunker.Chunk(doc.ID, doc.Content)
	if len(chunks) == 0 {
		chunks = []*models.DocumentChunk{{
			ID:         doc.ID + "#0",
			DocumentID: doc.ID,
			Content:    doc.Content,
		}}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	if err := in.store.BatchCreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	if err := in.vectors.Add(ctx, ids, vectors); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}

	// Underscores in filenames would otherwise survive tokenization and block
	// multi-word title matches.
	title := strings.ReplaceAll(doc.Title, "_", " ")
	for _, c := range chunks {
		if err := in.keywords.Index(ctx, c.ID, title, c.Content); err != nil {
			return fmt.Errorf("index keywords: %w", err)
		}
	}

	in.logger.Debug("document ingested",
		zap.String("doc_id", doc.ID),
		zap.Int("chunks", len(chunks)))
	return nil
}

// IngestFile extracts, chunks and indexes one file. The document ID derives
// from the absolute path, so re-ingesting the same file replaces the previous
// version. Unchanged files (same mtime and size) are skipped.
func (in *Ingestor) IngestFile(ctx context.Context, path string, allowedExts []string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(abs))
	if len(allowedExts) > 0 && !extAllowed(ext, allowedExts) {
		return fmt.Errorf("extension %q not allowed", ext)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", abs)
	}

	docID := fileid.DocID(abs)
	if in.unchanged(ctx, docID, abs, info) {
		in.logger.Debug("skipping unchanged file", zap.String("path", abs))
		return nil
	}

	var text string
	if in.extractor != nil {
		text, err = in.extractor.Extract(abs)
	} else {
		var raw []byte
		raw, err = os.ReadFile(abs)
		text = string(raw)
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", abs, err)
	}

	if err := in.Delete(ctx, docID); err != nil {
		in.logger.Warn("cleanup before reingest failed", zap.String("doc_id", docID), zap.Error(err))
	}
	return in.IngestDocument(ctx, &models.DocumentInput{
		ID:      docID,
		Title:   filepath.Base(abs),
		Content: text,
		Metadata: map[string]interface{}{
			metaSourcePath:  abs,
			metaSourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaSourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	})
}

// IngestUpload indexes in-memory file content, as received from the bot or the
// admin panel. The document ID derives from the file name.
func (in *Ingestor) IngestUpload(ctx context.Context, name string, content []byte) error {
	ext := strings.ToLower(filepath.Ext(name))
	var text string
	var err error
	if in.extractor != nil {
		text, err = in.extractor.ExtractBytes(content, ext)
		if err != nil {
			return fmt.Errorf("extract %s: %w", name, err)
		}
	} else {
		text = string(content)
	}

	docID := fileid.DocID("upload/" + name)
	if err := in.Delete(ctx, docID); err != nil {
		in.logger.Warn("cleanup before reingest failed", zap.String("doc_id", docID), zap.Error(err))
	}
	return in.IngestDocument(ctx, &models.DocumentInput{
		ID:      docID,
		Title:   name,
		Content: text,
		Metadata: map[string]interface{}{
			"source": "upload",
		},
	})
}

// IngestDirectory walks dir and ingests every regular file with an allowed
// extension. It returns the number of files ingested and the first error.
func (in *Ingestor) IngestDirectory(ctx context.Context, dir string, allowedExts []string) (int, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	count := 0
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !extAllowed(strings.ToLower(filepath.Ext(path)), allowedExts) {
			return nil
		}
		if err := in.IngestFile(ctx, path, allowedExts); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// Delete removes a document and its chunks from storage and both indices.
func (in *Ingestor) Delete(ctx context.Context, docID string) error {
	chunks, err := in.store.ChunksByDocument(ctx, docID)
	if err != nil {
		return err
	}
	if len(chunks) > 0 {
		ids := make([]string, len(chunks))
		for i, c := range chunks {
			ids[i] = c.ID
		}
		if err := in.vectors.Remove(ctx, ids); err != nil {
			return fmt.Errorf("remove vectors: %w", err)
		}
		if err := in.keywords.Delete(ctx, ids); err != nil {
			return fmt.Errorf("remove keywords: %w", err)
		}
	}
	if err := in.store.DeleteChunksByDocument(ctx, docID); err != nil {
		return err
	}
	return in.store.DeleteDocument(ctx, docID)
}

func (in *Ingestor) unchanged(ctx context.Context, docID, abs string, info os.FileInfo) bool {
	doc, err := in.store.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return false
	}
	if doc.Metadata[metaSourcePath] != abs {
		return false
	}
	// Stored as strings because UnixNano exceeds JSON's float53 precision.
	return metaInt(doc.Metadata, metaSourceMtime) == info.ModTime().UnixNano() &&
		metaInt(doc.Metadata, metaSourceSize) == info.Size()
}

func metaInt(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
