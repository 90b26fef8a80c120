package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/superteamvn/stvbot/pkg/utils"
)

// MockEmbedder derives a unit vector from the text hash. The same text always
// maps to the same vector, so tests and offline runs behave predictably.
type MockEmbedder struct {
	dims int
}

// NewMockEmbedder returns a deterministic embedder with the given dimensions.
func NewMockEmbedder(dims int) *MockEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &MockEmbedder{dims: dims}
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := float64(h.Sum64() % 100003)

	vec := make([]float32, e.dims)
	for i := range vec {
		vec[i] = float32(math.Cos(seed+float64(i)*1.7) + 0.05)
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *MockEmbedder) Dimensions() int { return e.dims }

func (e *MockEmbedder) Close() error { return nil }
