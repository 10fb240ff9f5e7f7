package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_PagesWithCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			_, _ = w.Write([]byte(`{"data":{"items":[{"id":"a"},{"id":"b"}]},"meta":{"next":"p2"}}`))
		case "p2":
			_, _ = w.Write([]byte(`{"data":{"items":[{"id":"c"}, 42]},"meta":{"next":null}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	conn := &connection.Connection{
		ID:   "conn-1",
		Type: connection.ConnectionTypeHTTP,
		Config: map[string]any{
			"url":          srv.URL + "/export",
			"token":        "secret",
			"records_path": "data.items",
			"cursor_path":  "meta.next",
		},
	}
	f := NewHTTPFetcher(srv.Client())

	first, err := f.FetchRecords(context.Background(), conn, "", 2)
	require.NoError(t, err)
	require.Len(t, first.Records, 2)
	assert.Equal(t, "a", first.Records[0]["id"])
	assert.Equal(t, "p2", first.NextCursor)

	second, err := f.FetchRecords(context.Background(), conn, first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Records, 2)
	assert.Equal(t, "c", second.Records[0]["id"])
	assert.Nil(t, second.Records[1])
	assert.Empty(t, second.NextCursor)
}

func TestHTTPFetcher_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	conn := &connection.Connection{Type: connection.ConnectionTypeHTTP, Config: map[string]any{"url": srv.URL}}
	_, err := NewHTTPFetcher(srv.Client()).FetchRecords(context.Background(), conn, "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPFetcher_RequiresURL(t *testing.T) {
	conn := &connection.Connection{Type: connection.ConnectionTypeHTTP, Config: map[string]any{}}
	_, err := NewHTTPFetcher(nil).FetchRecords(context.Background(), conn, "", 10)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParsePage_RecordsNotArray(t *testing.T) {
	_, err := parsePage([]byte(`{"records":{"id":1}}`), "records", "next_cursor")
	assert.Error(t, err)

	page, err := parsePage([]byte(`{"records":[]}`), "records", "next_cursor")
	require.NoError(t, err)
	assert.Empty(t, page.Records)
	assert.Empty(t, page.NextCursor)
}

func TestParsePage_MissingRecordsPathIsError(t *testing.T) {
	_, err := parsePage([]byte(`{"error":"maintenance"}`), "records", "next_cursor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"records"`)
}

func TestParsePage_KeepsIntegerPrecision(t *testing.T) {
	page, err := parsePage([]byte(`{"records":[{"id":9007199254740993,"score":1.25},{"id":9007199254740992}]}`), "records", "next_cursor")
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	assert.Equal(t, json.Number("9007199254740993"), page.Records[0]["id"])
	assert.Equal(t, json.Number("1.25"), page.Records[0]["score"])
	assert.Equal(t, json.Number("9007199254740992"), page.Records[1]["id"])
}
