package connector

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedSQLite(t *testing.T, n int) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "source.db")
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT, note BLOB)`)
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err = db.Exec(`INSERT INTO customers (id, name, note) VALUES (?, ?, ?)`, i, fmt.Sprintf("c%d", i), []byte("x"))
		require.NoError(t, err)
	}
	return dsn
}

func TestSQLFetcher_OffsetPaging(t *testing.T) {
	conn := &connection.Connection{
		ID:     "conn-sql",
		Type:   connection.ConnectionTypeSQLite,
		Config: map[string]any{"dsn": seedSQLite(t, 5), "table": "customers"},
	}
	f := NewSQLFetcher(zap.NewNop())
	defer f.Close()

	var (
		cursor string
		names  []string
		pages  int
	)
	for {
		page, err := f.FetchRecords(context.Background(), conn, cursor, 2)
		require.NoError(t, err)
		pages++
		for _, r := range page.Records {
			names = append(names, r["name"].(string))
			assert.Equal(t, "x", r["note"])
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, names)
	assert.Equal(t, 3, pages)
}

func TestSQLFetcher_RejectsBadIdentifiers(t *testing.T) {
	f := NewSQLFetcher(zap.NewNop())
	conn := &connection.Connection{
		ID:     "conn-sql",
		Type:   connection.ConnectionTypeSQLite,
		Config: map[string]any{"dsn": "unused", "table": "customers; DROP TABLE x"},
	}
	_, err := f.FetchRecords(context.Background(), conn, "", 10)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	conn.Config = map[string]any{"dsn": "unused", "table": "customers", "order_by": "id desc"}
	_, err = f.FetchRecords(context.Background(), conn, "", 10)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSQLFetcher_ReusesPoolPerConnection(t *testing.T) {
	conn := &connection.Connection{
		ID:     "conn-sql",
		Type:   connection.ConnectionTypeSQLite,
		Config: map[string]any{"dsn": seedSQLite(t, 1), "table": "customers"},
	}
	f := NewSQLFetcher(zap.NewNop())
	defer f.Close()

	a, err := f.open(conn)
	require.NoError(t, err)
	b, err := f.open(conn)
	require.NoError(t, err)
	assert.Same(t, a, b)

	f.Forget(conn.ID)
	c, err := f.open(conn)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}
