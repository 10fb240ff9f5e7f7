package connector

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoFetcher pages through a collection sorted by _id. Config keys: uri,
// database, collection.
type MongoFetcher struct {
	mu      sync.Mutex
	clients map[string]*mongoClient
	logger  *zap.Logger
}

type mongoClient struct {
	uri    string
	client *mongo.Client
}

func NewMongoFetcher(logger *zap.Logger) *MongoFetcher {
	return &MongoFetcher{
		clients: make(map[string]*mongoClient),
		logger:  logger,
	}
}

func (f *MongoFetcher) connect(ctx context.Context, conn *connection.Connection) (*mongo.Client, error) {
	uri := conn.String("uri")
	if uri == "" {
		return nil, fmt.Errorf("%w: uri is required", ErrInvalidConfig)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[conn.ID]; ok {
		if c.uri == uri {
			return c.client, nil
		}
		_ = c.client.Disconnect(ctx)
		delete(f.clients, conn.ID)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	f.clients[conn.ID] = &mongoClient{uri: uri, client: client}
	f.logger.Debug("connected to MongoDB source", zap.String("connection_id", conn.ID))
	return client, nil
}

func (f *MongoFetcher) FetchRecords(ctx context.Context, conn *connection.Connection, cursor string, limit int) (*Page, error) {
	dbName, collName := conn.String("database"), conn.String("collection")
	if dbName == "" || collName == "" {
		return nil, fmt.Errorf("%w: database and collection are required", ErrInvalidConfig)
	}
	var skip int64
	if cursor != "" {
		var err error
		if skip, err = strconv.ParseInt(cursor, 10, 64); err != nil || skip < 0 {
			return nil, fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if limit <= 0 {
		limit = 500
	}

	client, err := f.connect(ctx, conn)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(int64(limit))
	cur, err := client.Database(dbName).Collection(collName).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s.%s: %w", dbName, collName, err)
	}
	defer cur.Close(ctx)

	page := &Page{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		page.Records = append(page.Records, plainDocument(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(page.Records) == limit {
		page.NextCursor = strconv.FormatInt(skip+int64(limit), 10)
	}
	return page, nil
}

// plainDocument converts BSON values into the JSON-friendly shapes the rest of
// the pipeline expects.
func plainDocument(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	case primitive.Decimal128:
		return val.String()
	case bson.M:
		return plainDocument(val)
	case bson.D:
		return plainDocument(val.Map())
	case bson.A:
		out := make([]any, len(val))
		for i := range val {
			out[i] = plainValue(val[i])
		}
		return out
	default:
		return v
	}
}

func (f *MongoFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var firstErr error
	for id, c := range f.clients {
		if err := c.client.Disconnect(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.clients, id)
	}
	return firstErr
}
