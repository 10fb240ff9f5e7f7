package reconcile

import (
	"testing"
	"time"

	"github.com/dataspaces/syncer/internal/biz/datamodel"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id, key string, data map[string]any) *datamodel.Row {
	return &datamodel.Row{ID: id, ExternalKey: key, Data: data}
}

func rec(key string, data map[string]any) Record {
	return Record{Key: key, Data: data}
}

func TestDiff_ReplacesRemovedKeys(t *testing.T) {
	local := []*datamodel.Row{
		row("r-a", "A", map[string]any{"id": "A", "v": 1.0}),
		row("r-b", "B", map[string]any{"id": "B", "v": 2.0}),
	}
	remote := []Record{
		rec("B", map[string]any{"id": "B", "v": 2.0}),
		rec("C", map[string]any{"id": "C", "v": 3.0}),
	}

	plan := Diff(remote, local)

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, "C", plan.Inserts[0].Key)
	require.Len(t, plan.Unchanged, 1)
	assert.Equal(t, "r-b", plan.Unchanged[0].Row.ID)
	assert.Empty(t, plan.Updates)
	require.Len(t, plan.Deletes, 1)
	assert.Equal(t, "r-a", plan.Deletes[0].ID)
}

func TestDiff_DetectsChangedData(t *testing.T) {
	local := []*datamodel.Row{row("r-1", "1", map[string]any{"id": "1", "name": "old"})}
	plan := Diff([]Record{rec("1", map[string]any{"id": "1", "name": "new"})}, local)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "r-1", plan.Updates[0].Row.ID)
	assert.Equal(t, "new", plan.Updates[0].Record.Data["name"])
	assert.Empty(t, plan.Deletes)
}

func TestDiff_ReportsDuplicates(t *testing.T) {
	plan := Diff([]Record{
		rec("1", map[string]any{"id": "1"}),
		rec("1", map[string]any{"id": "1", "x": true}),
	}, nil)

	assert.Len(t, plan.Inserts, 1)
	assert.Len(t, plan.Duplicates, 1)
}

func TestDiff_EmptyRemoteDeletesEverything(t *testing.T) {
	local := []*datamodel.Row{row("r-1", "1", nil), row("r-2", "2", nil)}
	plan := Diff(nil, local)

	ids := lo.Map(plan.Deletes, func(r *datamodel.Row, _ int) string { return r.ID })
	assert.ElementsMatch(t, []string{"r-1", "r-2"}, ids)
}

func TestReconciler_DeletionsRequireCompletion(t *testing.T) {
	r := New([]*datamodel.Row{row("r-1", "1", nil)})

	_, err := r.Deletions()
	assert.ErrorIs(t, err, ErrIncomplete)

	r.Complete()
	deletes, err := r.Deletions()
	require.NoError(t, err)
	assert.Len(t, deletes, 1)
}

func TestReconciler_SeenAcrossPages(t *testing.T) {
	r := New([]*datamodel.Row{
		row("r-1", "1", map[string]any{"id": "1"}),
		row("r-2", "2", map[string]any{"id": "2"}),
	})

	d, err := r.Classify(rec("1", map[string]any{"id": "1"}))
	require.NoError(t, err)
	assert.Equal(t, ActionUnchanged, d.Action)

	_, err = r.Classify(rec("1", map[string]any{"id": "1"}))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	d, err = r.Classify(rec("3", map[string]any{"id": "3"}))
	require.NoError(t, err)
	assert.Equal(t, ActionInsert, d.Action)
	assert.Equal(t, 2, r.Seen())

	r.Complete()
	deletes, err := r.Deletions()
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, "r-2", deletes[0].ID)
}

func TestReconciler_MarkSeenRetainsRow(t *testing.T) {
	r := New([]*datamodel.Row{row("r-1", "1", nil), row("r-2", "2", nil)})
	r.MarkSeen("2")
	r.Complete()

	deletes, err := r.Deletions()
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, "r-1", deletes[0].ID)
}

func TestNew_KeepsOldestOfDuplicateLocalRows(t *testing.T) {
	now := time.Now()
	older := &datamodel.Row{ID: "old", ExternalKey: "k", CreatedAt: now.Add(-time.Hour)}
	newer := &datamodel.Row{ID: "new", ExternalKey: "k", CreatedAt: now}

	r := New([]*datamodel.Row{newer, older})
	d, err := r.Classify(rec("k", nil))
	require.NoError(t, err)
	assert.Equal(t, "old", d.Row.ID)

	r.Complete()
	deletes, err := r.Deletions()
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, "new", deletes[0].ID)
}
