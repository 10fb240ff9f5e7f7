// Package connector fetches records from the external sources registered as
// connections. Each source type has its own Fetcher; Registry picks one by
// connection type.
package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/google/wire"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewRegistry, wire.Bind(new(Fetcher), new(*Registry)))

var (
	ErrUnsupportedType = errors.New("unsupported connection type")
	ErrInvalidConfig   = errors.New("invalid connection config")
)

// Page is one batch of remote records. An empty NextCursor ends the stream.
type Page struct {
	Records    []map[string]any
	NextCursor string
}

type Fetcher interface {
	FetchRecords(ctx context.Context, conn *connection.Connection, cursor string, limit int) (*Page, error)
}

type Registry struct {
	mu       sync.RWMutex
	fetchers map[connection.ConnectionType]Fetcher
	logger   *zap.Logger
}

// NewRegistry returns a registry with the http, sql and mongodb fetchers
// installed.
func NewRegistry(logger *zap.Logger) *Registry {
	r := &Registry{
		fetchers: make(map[connection.ConnectionType]Fetcher),
		logger:   logger,
	}
	sqlFetcher := NewSQLFetcher(logger)
	r.Register(connection.ConnectionTypeHTTP, NewHTTPFetcher(nil))
	r.Register(connection.ConnectionTypePostgres, sqlFetcher)
	r.Register(connection.ConnectionTypeMySQL, sqlFetcher)
	r.Register(connection.ConnectionTypeSQLite, sqlFetcher)
	r.Register(connection.ConnectionTypeMongoDB, NewMongoFetcher(logger))
	return r
}

// NewEmptyRegistry returns a registry with no fetchers.
func NewEmptyRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		fetchers: make(map[connection.ConnectionType]Fetcher),
		logger:   logger,
	}
}

func (r *Registry) Register(typ connection.ConnectionType, f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[typ] = f
}

func (r *Registry) FetchRecords(ctx context.Context, conn *connection.Connection, cursor string, limit int) (*Page, error) {
	r.mu.RLock()
	f, ok := r.fetchers[conn.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, conn.Type)
	}
	return f.FetchRecords(ctx, conn, cursor, limit)
}

// Close releases pooled source connections.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[io.Closer]struct{})
	var errs []error
	for typ, f := range r.fetchers {
		c, ok := f.(io.Closer)
		if !ok {
			continue
		}
		if _, done := seen[c]; done {
			continue
		}
		seen[c] = struct{}{}
		if err := c.Close(); err != nil {
			r.logger.Warn("failed to close connector", zap.String("type", string(typ)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
