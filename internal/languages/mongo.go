package languages

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davidschrooten/solr-schema-sync/config"
)

// Mongo reads one string field from every document of a collection.
// Documents lacking the field, or holding a non-string value, are skipped.
type Mongo struct {
	client     *mongo.Client
	database   string
	collection string
	field      string
	timeout    time.Duration
}

// NewMongo connects to MongoDB and verifies the connection
func NewMongo(ctx context.Context, cfg config.MongoLanguagesConfig) (*Mongo, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.GetMongoURI()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Mongo{
		client:     client,
		database:   cfg.Database,
		collection: cfg.Collection,
		field:      cfg.Field,
		timeout:    timeout,
	}, nil
}

// Languages returns the field values in natural collection order
func (m *Mongo) Languages(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{m.field: 1, "_id": 0})
	cursor, err := m.client.Database(m.database).Collection(m.collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query languages: %w", err)
	}
	defer cursor.Close(ctx)

	var codes []string
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode language document: %w", err)
		}
		if code, ok := doc[m.field].(string); ok {
			codes = append(codes, code)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return codes, nil
}

// Close disconnects from MongoDB
func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
