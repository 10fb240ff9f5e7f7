package testutil

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/dataspaces/syncer/internal/connector"
)

// Fetcher serves canned pages per connection id. Page i is returned for
// cursor "" (i = 0) or the cursor the previous page handed out.
type Fetcher struct {
	mu    sync.Mutex
	pages map[string][][]map[string]any
	errs  map[string]error
	calls map[string]int
	hook  func(ctx context.Context, conn *connection.Connection, cursor string)
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		pages: make(map[string][][]map[string]any),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// Serve sets the pages returned for a connection.
func (f *Fetcher) Serve(connectionID string, pages ...[]map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[connectionID] = pages
	delete(f.errs, connectionID)
}

// Fail makes every fetch for a connection return err.
func (f *Fetcher) Fail(connectionID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[connectionID] = err
}

// OnFetch runs hook before each fetch, outside the fetcher's lock.
func (f *Fetcher) OnFetch(hook func(ctx context.Context, conn *connection.Connection, cursor string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

func (f *Fetcher) Calls(connectionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[connectionID]
}

func (f *Fetcher) FetchRecords(ctx context.Context, conn *connection.Connection, cursor string, _ int) (*connector.Page, error) {
	f.mu.Lock()
	hook := f.hook
	f.calls[conn.ID]++
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, conn, cursor)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[conn.ID]; err != nil {
		return nil, err
	}
	pages := f.pages[conn.ID]
	idx := 0
	if cursor != "" {
		idx = cursorIndex(cursor)
		if idx < 0 || idx >= len(pages) {
			return nil, errors.New("unknown cursor " + cursor)
		}
	}
	if len(pages) == 0 {
		return &connector.Page{}, nil
	}
	page := &connector.Page{Records: pages[idx]}
	if idx+1 < len(pages) {
		page.NextCursor = cursorFor(idx + 1)
	}
	return page, nil
}

func cursorFor(i int) string {
	return "page-" + strconv.Itoa(i)
}

func cursorIndex(cursor string) int {
	raw, ok := strings.CutPrefix(cursor, "page-")
	if !ok {
		return -1
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return i
}

// Records builds remote records with the given ids and a name derived from
// each id.
func Records(ids ...string) []map[string]any {
	out := make([]map[string]any, len(ids))
	for i, id := range ids {
		out[i] = map[string]any{"id": id, "name": "name-" + id}
	}
	return out
}
