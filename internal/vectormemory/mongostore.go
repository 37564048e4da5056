package vectormemory

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/launchonomy/orchestrator/internal/telemetry"
)

const (
	defaultCollection = "mission_memory"
	defaultTimeout    = 5 * time.Second
)

// MongoOptions configures a Mongo-backed Store.
type MongoOptions struct {
	Client     *mongo.Client
	Database   string
	Collection string
	Timeout    time.Duration
	Embedder   Embedder
	Logger     telemetry.Logger
}

// MongoStore persists mission memory collections to MongoDB. Similarity
// ranking is done in Go over the candidate set returned by the metadata
// filter: the store never assumes a vector-search index is configured on the
// collection, so it works against a bare MongoDB deployment.
type MongoStore struct {
	client    *mongo.Client
	coll      *mongo.Collection
	timeout   time.Duration
	embedder  Embedder
	logger    telemetry.Logger
}

type memoryDocument struct {
	ID        string         `bson:"_id"`
	MissionID string         `bson:"mission_id"`
	Content   string         `bson:"content"`
	MIME      string         `bson:"mime,omitempty"`
	Embedding []float32      `bson:"embedding,omitempty"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

// NewMongoStore builds a Store backed by the given MongoDB client, ensuring
// the mission_id index used by every query below exists.
func NewMongoStore(opts MongoOptions) (*MongoStore, error) {
	if opts.Client == nil {
		return nil, errors.New("vectormemory: mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("vectormemory: database name is required")
	}
	collName := opts.Collection
	if collName == "" {
		collName = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	embedder := opts.Embedder
	if embedder == nil {
		embedder = NewHashEmbedder()
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}

	coll := opts.Client.Database(opts.Database).Collection(collName)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	index := mongo.IndexModel{Keys: bson.D{{Key: "mission_id", Value: 1}}}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		return nil, err
	}

	return &MongoStore{
		client:   opts.Client,
		coll:     coll,
		timeout:  timeout,
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Ping reports whether the MongoDB primary is reachable. MongoStore has no
// Name method, so it does not by itself satisfy goa.design/clue's
// health.Pinger.
func (s *MongoStore) Ping(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Upsert(ctx context.Context, missionID, id, content, mime string, metadata map[string]any) (string, error) {
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: embedding failed, recording without vector", "mission_id", missionID, "error", err)
	}
	if id == "" {
		id = bson.NewObjectID().Hex()
	}
	meta := cloneMeta(metadata)
	if meta == nil {
		meta = make(map[string]any)
	}
	now := time.Now().UTC()
	meta["timestamp"] = now.Format(time.RFC3339Nano)

	doc := memoryDocument{
		ID:        id,
		MissionID: missionID,
		Content:   content,
		MIME:      mime,
		Embedding: embedding,
		Metadata:  meta,
		CreatedAt: now,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: upsert failed", "mission_id", missionID, "error", err)
		return "", nil
	}
	return id, nil
}

func (s *MongoStore) Query(ctx context.Context, missionID, text string, k int, filter Filter) ([]QueryResult, error) {
	if k <= 0 {
		k = 10
	}
	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: query embedding failed, returning empty results", "mission_id", missionID, "error", err)
		return []QueryResult{}, nil
	}

	query := bson.M{"mission_id": missionID}
	for key, val := range filter {
		query["metadata."+key] = val
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.coll.Find(ctx, query)
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: query failed, returning empty results", "mission_id", missionID, "error", err)
		return []QueryResult{}, nil
	}
	defer cur.Close(ctx)

	var docs []memoryDocument
	if err := cur.All(ctx, &docs); err != nil {
		s.logger.Warn(ctx, "vectormemory: decoding results failed, returning empty results", "mission_id", missionID, "error", err)
		return []QueryResult{}, nil
	}

	results := make([]QueryResult, 0, len(docs))
	for _, doc := range docs {
		results = append(results, QueryResult{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Distance: cosineDistance(queryVec, doc.Embedding),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *MongoStore) Delete(ctx context.Context, missionID, id string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "mission_id": missionID})
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: delete failed", "mission_id", missionID, "error", err)
		return false, nil
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) Stats(ctx context.Context, missionID string) (Stats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	count, err := s.coll.CountDocuments(ctx, bson.M{"mission_id": missionID})
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: stats failed", "mission_id", missionID, "error", err)
		return Stats{Name: missionID}, nil
	}
	return Stats{
		Count:     int(count),
		Directory: s.coll.Database().Name() + "/" + s.coll.Name(),
		Name:      missionID,
	}, nil
}

func (s *MongoStore) Clear(ctx context.Context, missionID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	res, err := s.coll.DeleteMany(ctx, bson.M{"mission_id": missionID})
	if err != nil {
		s.logger.Warn(ctx, "vectormemory: clear failed", "mission_id", missionID, "error", err)
		return false, nil
	}
	return res.DeletedCount > 0, nil
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}
