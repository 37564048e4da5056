package vectormemory

import (
	"context"
	"hash/fnv"
	"strings"
)

// hashDimensions is small enough to keep the in-memory store cheap while
// still separating unrelated content in cosine space.
const hashDimensions = 64

// HashEmbedder derives a deterministic bag-of-words embedding from text
// without calling an external provider. It is the default used whenever no
// chat client embeddings endpoint is configured, and throughout tests.
type HashEmbedder struct{}

// NewHashEmbedder returns the stdlib-only fallback embedder.
func NewHashEmbedder() Embedder { return HashEmbedder{} }

// Embed hashes each token in text into one of hashDimensions buckets and
// accumulates a term-frequency vector. Distances between embeddings produced
// this way approximate lexical overlap, not semantic similarity, but are
// stable and dependency-free.
func (HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashDimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%hashDimensions]++
	}
	return vec, nil
}
