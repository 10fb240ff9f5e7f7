package connector

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/dataspaces/syncer/internal/biz/connection"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLFetcher reads a table from a relational source with offset paging.
// Config keys: dsn, table, order_by (default "id").
type SQLFetcher struct {
	mu     sync.Mutex
	pools  map[string]*pool
	logger *zap.Logger
}

type pool struct {
	dsn string
	db  *sql.DB
}

func NewSQLFetcher(logger *zap.Logger) *SQLFetcher {
	return &SQLFetcher{
		pools:  make(map[string]*pool),
		logger: logger,
	}
}

func driverName(typ connection.ConnectionType) (string, error) {
	switch typ {
	case connection.ConnectionTypePostgres:
		return "pgx", nil
	case connection.ConnectionTypeMySQL:
		return "mysql", nil
	case connection.ConnectionTypeSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
	}
}

func (f *SQLFetcher) open(conn *connection.Connection) (*sql.DB, error) {
	dsn := conn.String("dsn")
	if dsn == "" {
		return nil, fmt.Errorf("%w: dsn is required", ErrInvalidConfig)
	}
	driver, err := driverName(conn.Type)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pools[conn.ID]; ok {
		if p.dsn == dsn {
			return p.db, nil
		}
		_ = p.db.Close()
		delete(f.pools, conn.ID)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s source: %w", conn.Type, err)
	}
	db.SetMaxOpenConns(conn.Int("max_connections", 2))
	db.SetConnMaxIdleTime(5 * time.Minute)
	f.pools[conn.ID] = &pool{dsn: dsn, db: db}
	f.logger.Debug("opened source pool",
		zap.String("connection_id", conn.ID),
		zap.String("type", string(conn.Type)))
	return db, nil
}

func (f *SQLFetcher) FetchRecords(ctx context.Context, conn *connection.Connection, cursor string, limit int) (*Page, error) {
	table := conn.String("table")
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("%w: table %q", ErrInvalidConfig, table)
	}
	orderBy := conn.StringOr("order_by", "id")
	if !identifier.MatchString(orderBy) {
		return nil, fmt.Errorf("%w: order_by %q", ErrInvalidConfig, orderBy)
	}
	offset := 0
	if cursor != "" {
		var err error
		if offset, err = strconv.Atoi(cursor); err != nil || offset < 0 {
			return nil, fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if limit <= 0 {
		limit = 500
	}

	db, err := f.open(conn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT %d OFFSET %d", table, orderBy, limit, offset)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}

	page := &Page{Records: records}
	if len(records) == limit {
		page.NextCursor = strconv.Itoa(offset + limit)
	}
	return page, nil
}

func scanRecords(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				record[col] = string(v)
			case time.Time:
				record[col] = v.UTC().Format(time.RFC3339Nano)
			default:
				record[col] = v
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Forget closes the pool kept for a connection, e.g. after it is revoked.
func (f *SQLFetcher) Forget(connectionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pools[connectionID]; ok {
		_ = p.db.Close()
		delete(f.pools, connectionID)
	}
}

func (f *SQLFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var firstErr error
	for id, p := range f.pools {
		if err := p.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.pools, id)
	}
	return firstErr
}
