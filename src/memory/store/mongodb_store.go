package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hivegate/hive-agent/src/memory/model"
)

// MongoStore keeps knowledge records in a MongoDB collection with an Atlas
// vector search index. The index must be created out of band and named
// "vector_index" over the "embedding" field with cosine similarity.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	Key       string            `bson:"_id"`
	Content   string            `bson:"content"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
	Embedding []float32         `bson:"embedding"`
	CreatedAt time.Time         `bson:"created_at"`
}

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

func (s *MongoStore) Upsert(ctx context.Context, key, content string, metadata map[string]string, embedding []float32) error {
	rec := mongoRecord{
		Key:       key,
		Content:   content,
		Metadata:  metadata,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %q: %w", key, err)
	}
	return nil
}

func (s *MongoStore) Search(ctx context.Context, embedding []float32, limit int) ([]model.MemoryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := make(bson.A, len(embedding))
	for i, f := range embedding {
		query[i] = f
	}
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.M{
			"index":         "vector_index",
			"path":          "embedding",
			"queryVector":   query,
			"numCandidates": limit * 10,
			"limit":         limit,
		}}},
		{{Key: "$addFields", Value: bson.M{
			"score": bson.M{"$meta": "vectorSearchScore"},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "score", Value: -1},
			{Key: "created_at", Value: -1},
		}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo search: %w", err)
	}
	defer cur.Close(ctx)

	var out []model.MemoryRecord
	for cur.Next(ctx) {
		var doc struct {
			mongoRecord `bson:",inline"`
			Score       float64 `bson:"score"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, model.MemoryRecord{
			Key:       doc.Key,
			Content:   doc.Content,
			Metadata:  doc.Metadata,
			Embedding: doc.Embedding,
			CreatedAt: doc.CreatedAt,
			Score:     doc.Score,
		})
	}
	return out, cur.Err()
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo count: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
