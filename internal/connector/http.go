package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 64 << 20

// HTTPFetcher pages through a JSON API. Config keys:
//
//	url           endpoint, required
//	token         bearer token
//	headers       extra request headers
//	records_path  gjson path of the record array (default "records")
//	cursor_path   gjson path of the next cursor (default "next_cursor")
//	cursor_param  query parameter carrying the cursor (default "cursor")
//	limit_param   query parameter carrying the page size (default "limit")
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) FetchRecords(ctx context.Context, conn *connection.Connection, cursor string, limit int) (*Page, error) {
	endpoint := conn.String("url")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidConfig)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: url: %v", ErrInvalidConfig, err)
	}
	q := u.Query()
	if cursor != "" {
		q.Set(conn.StringOr("cursor_param", "cursor"), cursor)
	}
	if limit > 0 {
		q.Set(conn.StringOr("limit_param", "limit"), strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := conn.String("token"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range cast.ToStringMapString(conn.Config["headers"]) {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", u.Redacted(), resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("fetch %s: response is not valid JSON", u.Redacted())
	}

	return parsePage(body, conn.StringOr("records_path", "records"), conn.StringOr("cursor_path", "next_cursor"))
}

func parsePage(body []byte, recordsPath, cursorPath string) (*Page, error) {
	records := gjson.GetBytes(body, recordsPath)
	if !records.Exists() {
		return nil, fmt.Errorf("records path %q not found in response", recordsPath)
	}
	if !records.IsArray() {
		return nil, fmt.Errorf("records at %q are not an array", recordsPath)
	}

	page := &Page{}
	var decodeErr error
	records.ForEach(func(_, value gjson.Result) bool {
		// non-objects are kept as nil so they count as failed records
		if !value.IsObject() {
			page.Records = append(page.Records, nil)
			return true
		}
		obj, err := decodeObject(value.Raw)
		if err != nil {
			decodeErr = err
			return false
		}
		page.Records = append(page.Records, obj)
		return true
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("decode record at %q: %w", recordsPath, decodeErr)
	}

	next := gjson.GetBytes(body, cursorPath)
	if next.Exists() && next.Type != gjson.Null {
		page.NextCursor = next.String()
	}
	return page, nil
}

// decodeObject keeps numbers as json.Number so integer keys wider than a
// float64 mantissa survive.
func decodeObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	return obj, nil
}
