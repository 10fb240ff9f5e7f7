// Package reconcile decides how a remote record set maps onto the rows already
// stored for a data model.
package reconcile

import (
	"errors"

	"github.com/dataspaces/syncer/internal/biz/datamodel"
)

var (
	ErrDuplicateKey = errors.New("duplicate natural key in remote data")
	ErrIncomplete   = errors.New("deletions requested before the remote set was complete")
)

type Action string

const (
	ActionInsert    Action = "insert"
	ActionUpdate    Action = "update"
	ActionUnchanged Action = "unchanged"
)

// Record is a normalized remote record.
type Record struct {
	Key  string
	Data map[string]any
}

// Decision is what to do with one remote record. Row is the matched local row
// for updates and unchanged records.
type Decision struct {
	Action Action
	Record Record
	Row    *datamodel.Row
}

type Plan struct {
	Inserts    []Record
	Updates    []Decision
	Unchanged  []Decision
	Deletes    []*datamodel.Row
	Duplicates []Record
}

// Diff compares a complete remote set with the local rows. Later occurrences
// of a key already seen are reported as duplicates and otherwise ignored.
func Diff(remote []Record, local []*datamodel.Row) Plan {
	r := New(local)
	var plan Plan
	for _, rec := range remote {
		d, err := r.Classify(rec)
		if err != nil {
			plan.Duplicates = append(plan.Duplicates, rec)
			continue
		}
		switch d.Action {
		case ActionInsert:
			plan.Inserts = append(plan.Inserts, rec)
		case ActionUpdate:
			plan.Updates = append(plan.Updates, d)
		default:
			plan.Unchanged = append(plan.Unchanged, d)
		}
	}
	r.Complete()
	plan.Deletes, _ = r.Deletions()
	return plan
}

// Reconciler classifies remote records page by page against a local snapshot.
// It yields deletions only after Complete has been called.
type Reconciler struct {
	local    map[string]*datamodel.Row
	extra    []*datamodel.Row
	seen     map[string]struct{}
	complete bool
}

// New indexes the snapshot by natural key. When several local rows share a
// key the oldest one is kept and the others become deletions.
func New(local []*datamodel.Row) *Reconciler {
	r := &Reconciler{
		local: make(map[string]*datamodel.Row, len(local)),
		seen:  make(map[string]struct{}, len(local)),
	}
	for _, row := range local {
		if prev, ok := r.local[row.ExternalKey]; ok {
			if row.CreatedAt.Before(prev.CreatedAt) {
				r.local[row.ExternalKey] = row
				r.extra = append(r.extra, prev)
			} else {
				r.extra = append(r.extra, row)
			}
			continue
		}
		r.local[row.ExternalKey] = row
	}
	return r
}

// Classify marks rec's key as seen and decides its action. A key seen earlier
// in the same run returns ErrDuplicateKey.
func (r *Reconciler) Classify(rec Record) (Decision, error) {
	if _, dup := r.seen[rec.Key]; dup {
		return Decision{}, ErrDuplicateKey
	}
	r.seen[rec.Key] = struct{}{}

	row, ok := r.local[rec.Key]
	if !ok {
		return Decision{Action: ActionInsert, Record: rec}, nil
	}
	if datamodel.Equal(row.Data, rec.Data) {
		return Decision{Action: ActionUnchanged, Record: rec, Row: row}, nil
	}
	return Decision{Action: ActionUpdate, Record: rec, Row: row}, nil
}

// MarkSeen keeps the local row for key out of the deletions without
// classifying a record for it. Used for fetched records that were rejected.
func (r *Reconciler) MarkSeen(key string) {
	r.seen[key] = struct{}{}
}

// Seen reports how many distinct keys were classified.
func (r *Reconciler) Seen() int {
	return len(r.seen)
}

// Complete records that the remote cursor is exhausted.
func (r *Reconciler) Complete() {
	r.complete = true
}

// Deletions returns the local rows whose key never appeared remotely.
func (r *Reconciler) Deletions() ([]*datamodel.Row, error) {
	if !r.complete {
		return nil, ErrIncomplete
	}
	out := append([]*datamodel.Row(nil), r.extra...)
	for key, row := range r.local {
		if _, ok := r.seen[key]; !ok {
			out = append(out, row)
		}
	}
	return out, nil
}
