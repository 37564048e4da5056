// Package vectormemory implements the mission-scoped vector memory
// collection: one logical collection per mission, queried by embedding
// similarity. The vector-index engine itself (FAISS, pgvector, a managed
// vector database) is out of scope; similarity is computed over embeddings
// held alongside each record, matching what a mission's workspace actually
// needs: best-effort recall across a few thousand records per mission, not a
// production ANN index.
package vectormemory

import (
	"context"
	"math"
	"time"
)

// Record is one upserted memory entry.
type Record struct {
	ID        string
	MissionID string
	Content   string
	MIME      string
	Embedding []float32
	Metadata  map[string]any
	CreatedAt time.Time
}

// QueryResult is a single match returned by Query, ordered by ascending
// Distance (closer is better).
type QueryResult struct {
	ID       string
	Content  string
	Metadata map[string]any
	Distance float64
}

// Stats reports collection size and location for a mission's collection.
type Stats struct {
	Count     int
	Directory string
	Name      string
}

// Filter is an equality predicate over metadata keys: a record matches iff
// every key in Filter is present in the record's metadata with an equal
// value. A nil or empty Filter matches everything.
type Filter map[string]any

// Embedder turns text into a vector. Implementations may call an LLM
// provider's embeddings endpoint or, for tests and offline operation, derive
// a cheap deterministic vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the mission-scoped vector memory collection contract. Every
// method is best-effort: a failure in the underlying engine is logged and
// reported back as an empty result rather than an error, since memory is
// advisory, not load-bearing, to mission execution.
type Store interface {
	// Upsert inserts or replaces a record. If id is empty a new one is
	// generated. Returns the record's id.
	Upsert(ctx context.Context, missionID, id, content, mime string, metadata map[string]any) (string, error)

	// Query returns up to k records ranked by ascending distance to text's
	// embedding, optionally restricted by filter. Never returns an error for
	// an empty or missing collection; returns an empty slice instead.
	Query(ctx context.Context, missionID, text string, k int, filter Filter) ([]QueryResult, error)

	// Delete removes a record by id. Returns whether a record was removed.
	Delete(ctx context.Context, missionID, id string) (bool, error)

	// Stats reports the collection's current size.
	Stats(ctx context.Context, missionID string) (Stats, error)

	// Clear removes every record in the mission's collection.
	Clear(ctx context.Context, missionID string) (bool, error)
}

func matchesFilter(meta map[string]any, filter Filter) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 1.0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 1.0
	}
	similarity := dot / (math.Sqrt(magA) * math.Sqrt(magB))
	return 1.0 - similarity
}
