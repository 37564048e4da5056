package vectormemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launchonomy/orchestrator/internal/telemetry"
)

// MemStore is an in-process Store implementation, one collection per
// mission kept entirely in memory. It backs missions that have no workspace
// yet and is also the default test double for every package above this one.
type MemStore struct {
	mu       sync.Mutex
	embedder Embedder
	logger   telemetry.Logger
	byMission map[string]map[string]Record
}

// NewMemStore constructs an empty in-memory store using embedder to vectorize
// content. A nil logger is replaced with a noop logger.
func NewMemStore(embedder Embedder, logger telemetry.Logger) *MemStore {
	if embedder == nil {
		embedder = NewHashEmbedder()
	}
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &MemStore{
		embedder:  embedder,
		logger:    logger,
		byMission: make(map[string]map[string]Record),
	}
}

func (s *MemStore) Upsert(ctx context.Context, missionID, id, content, mime string, metadata map[string]any) (string, error) {
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: embedding failed, recording without vector", "mission_id", missionID, "error", err)
		embedding = nil
	}
	if id == "" {
		id = uuid.NewString()
	}
	meta := cloneMeta(metadata)
	if meta == nil {
		meta = make(map[string]any)
	}
	meta["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)

	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.byMission[missionID]
	if !ok {
		coll = make(map[string]Record)
		s.byMission[missionID] = coll
	}
	coll[id] = Record{
		ID:        id,
		MissionID: missionID,
		Content:   content,
		MIME:      mime,
		Embedding: embedding,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	return id, nil
}

func (s *MemStore) Query(ctx context.Context, missionID, text string, k int, filter Filter) ([]QueryResult, error) {
	if k <= 0 {
		k = 10
	}
	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: query embedding failed, returning empty results", "mission_id", missionID, "error", err)
		return []QueryResult{}, nil
	}

	s.mu.Lock()
	coll, ok := s.byMission[missionID]
	if !ok {
		s.mu.Unlock()
		return []QueryResult{}, nil
	}
	candidates := make([]Record, 0, len(coll))
	for _, rec := range coll {
		if matchesFilter(rec.Metadata, filter) {
			candidates = append(candidates, rec)
		}
	}
	s.mu.Unlock()

	results := make([]QueryResult, 0, len(candidates))
	for _, rec := range candidates {
		results = append(results, QueryResult{
			ID:       rec.ID,
			Content:  rec.Content,
			Metadata: rec.Metadata,
			Distance: cosineDistance(queryVec, rec.Embedding),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MemStore) Delete(_ context.Context, missionID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.byMission[missionID]
	if !ok {
		return false, nil
	}
	if _, present := coll[id]; !present {
		return false, nil
	}
	delete(coll, id)
	return true, nil
}

func (s *MemStore) Stats(_ context.Context, missionID string) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Count:     len(s.byMission[missionID]),
		Directory: "memory",
		Name:      missionID,
	}, nil
}

func (s *MemStore) Clear(_ context.Context, missionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.byMission[missionID]
	delete(s.byMission, missionID)
	return existed, nil
}

func cloneMeta(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
