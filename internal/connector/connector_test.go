package connector

import (
	"context"
	"testing"
	"time"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type staticFetcher struct{ page *Page }

func (s staticFetcher) FetchRecords(context.Context, *connection.Connection, string, int) (*Page, error) {
	return s.page, nil
}

func TestRegistry_DispatchesOnType(t *testing.T) {
	r := NewEmptyRegistry(zap.NewNop())
	r.Register(connection.ConnectionTypeHTTP, staticFetcher{page: &Page{Records: []map[string]any{{"id": "1"}}}})

	page, err := r.FetchRecords(context.Background(), &connection.Connection{Type: connection.ConnectionTypeHTTP}, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)

	_, err = r.FetchRecords(context.Background(), &connection.Connection{Type: "ftp"}, "", 10)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestNewRegistry_InstallsDefaults(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	defer r.Close()

	for _, typ := range []connection.ConnectionType{
		connection.ConnectionTypeHTTP,
		connection.ConnectionTypePostgres,
		connection.ConnectionTypeMySQL,
		connection.ConnectionTypeSQLite,
		connection.ConnectionTypeMongoDB,
	} {
		assert.Contains(t, r.fetchers, typ)
	}
}

func TestPlainDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	doc := plainDocument(bson.M{
		"_id":     oid,
		"created": primitive.NewDateTimeFromTime(at),
		"tags":    bson.A{"a", oid},
		"nested":  bson.M{"ref": oid},
		"count":   int32(3),
	})

	assert.Equal(t, oid.Hex(), doc["_id"])
	assert.Equal(t, "2024-03-01T12:00:00Z", doc["created"])
	assert.Equal(t, []any{"a", oid.Hex()}, doc["tags"])
	assert.Equal(t, map[string]any{"ref": oid.Hex()}, doc["nested"])
	assert.Equal(t, int32(3), doc["count"])
}
