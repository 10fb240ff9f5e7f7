package syncer

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/dataspaces/syncer/internal/biz/datamodel"
	"github.com/dataspaces/syncer/internal/biz/execution"
	"github.com/dataspaces/syncer/internal/biz/schedule"
	"github.com/dataspaces/syncer/internal/connector"
	"github.com/dataspaces/syncer/internal/guard"
	"github.com/dataspaces/syncer/internal/reconcile"
	"go.uber.org/zap"
)

type target struct {
	model *datamodel.DataModel
	conn  *connection.Connection
}

func (e *Executor) sync(ctx context.Context, sched *schedule.SyncSchedule, exec *execution.SyncExecution, logger *zap.Logger) error {
	t, err := e.resolveTarget(ctx, sched)
	if err != nil {
		return err
	}

	local, err := e.models.ListRows(ctx, t.model.ID, t.conn.ID)
	if err != nil {
		return fmt.Errorf("load local rows: %w", err)
	}
	rec := reconcile.New(local)
	logger.Debug("local snapshot loaded", zap.Int("rows", len(local)))

	cursor := ""
	for pageNo := 1; ; pageNo++ {
		page, err := e.fetchPage(ctx, t.conn, cursor)
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", pageNo, err)
		}

		delta, applyErr := e.applyPage(ctx, t, rec, page.Records, logger)
		exec.Counters.Add(delta)
		if err := e.executions.UpdateProgress(ctx, exec.ID, exec.Counters); err != nil {
			return errors.Join(applyErr, fmt.Errorf("store progress: %w", err))
		}
		if applyErr != nil {
			return applyErr
		}
		logger.Debug("page applied",
			zap.Int("page", pageNo),
			zap.Int64("records_fetched", delta.Fetched),
			zap.Int64("records_failed", delta.Failed))

		if err := e.checkCancelled(ctx, sched, t); err != nil {
			return err
		}
		if page.NextCursor == "" {
			break
		}
		if page.NextCursor == cursor {
			return fmt.Errorf("%w: %q", ErrCursorStuck, cursor)
		}
		cursor = page.NextCursor
	}
	rec.Complete()

	held, err := e.guard.Held(ctx, sched.ID, exec.ID)
	if err != nil {
		return err
	}
	if !held {
		logger.Error("guard lost before deletion pass",
			zap.Bool("invariant_violation", true))
		return guard.ErrGuardLost
	}

	deletions, err := rec.Deletions()
	if err != nil {
		return err
	}
	for _, row := range deletions {
		if err := e.models.DeleteRow(ctx, row.ID, t.model.DeletePolicy); err != nil {
			if fatalWrite(ctx, err) {
				return fmt.Errorf("delete row %s: %w", row.ID, err)
			}
			logger.Warn("failed to delete row", zap.String("row_id", row.ID), zap.Error(err))
			exec.Counters.Failed++
			continue
		}
		exec.Counters.Deleted++
	}
	return nil
}

// resolveTarget loads and checks the data model and connection of a schedule.
func (e *Executor) resolveTarget(ctx context.Context, sched *schedule.SyncSchedule) (*target, error) {
	model, err := e.models.GetByID(ctx, sched.DataModelID)
	if err != nil {
		return nil, fmt.Errorf("%w: data model %s: %w", ErrInvalidTarget, sched.DataModelID, err)
	}
	if !model.HasNaturalKey() {
		return nil, fmt.Errorf("%w: data model %s", ErrNoNaturalKey, model.ID)
	}
	if model.SpaceID != sched.SpaceID {
		return nil, fmt.Errorf("%w: data model %s belongs to another space", ErrInvalidTarget, model.ID)
	}

	conn, err := e.connections.GetByID(ctx, sched.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: connection %s: %w", ErrInvalidTarget, sched.ConnectionID, err)
	}
	if conn.SpaceID != sched.SpaceID {
		return nil, fmt.Errorf("%w: connection %s belongs to another space", ErrInvalidTarget, conn.ID)
	}
	if conn.IsRevoked() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, connection.ErrConnectionRevoked)
	}
	return &target{model: model, conn: conn}, nil
}

func (e *Executor) fetchPage(ctx context.Context, conn *connection.Connection, cursor string) (*connector.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()
	page, err := e.fetcher.FetchRecords(ctx, conn, cursor, e.cfg.PageSize)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return &connector.Page{}, nil
	}
	return page, nil
}

// applyPage normalizes, classifies and writes one page. Bad records and
// failed row writes are counted and skipped; the returned error is fatal.
func (e *Executor) applyPage(ctx context.Context, t *target, rec *reconcile.Reconciler, records []map[string]any, logger *zap.Logger) (execution.Counters, error) {
	c := execution.Counters{Fetched: int64(len(records))}
	for i, raw := range records {
		key, data, err := t.model.Normalize(raw)
		if err != nil {
			logger.Debug("record rejected", zap.Int("index", i), zap.Error(err))
			if key != "" {
				rec.MarkSeen(key)
			}
			c.Failed++
			continue
		}

		d, err := rec.Classify(reconcile.Record{Key: key, Data: data})
		if err != nil {
			logger.Debug("record rejected", zap.String("external_key", key), zap.Error(err))
			c.Failed++
			continue
		}

		switch d.Action {
		case reconcile.ActionInsert:
			err = e.models.InsertRow(ctx, &datamodel.Row{
				DataModelID:        t.model.ID,
				SourceConnectionID: t.conn.ID,
				ExternalKey:        key,
				Data:               data,
			})
		case reconcile.ActionUpdate:
			err = e.models.UpdateRowData(ctx, d.Row.ID, data)
		}
		if err != nil {
			if fatalWrite(ctx, err) {
				return c, fmt.Errorf("write record %q: %w", key, err)
			}
			logger.Warn("failed to write record", zap.String("external_key", key), zap.Error(err))
			c.Failed++
			continue
		}

		c.Processed++
		switch d.Action {
		case reconcile.ActionInsert:
			c.Inserted++
		case reconcile.ActionUpdate:
			c.Updated++
		}
	}
	return c, nil
}

// checkCancelled reports ErrCancelled when the schedule, its connection or its
// data model changed in a way that forbids continuing.
func (e *Executor) checkCancelled(ctx context.Context, sched *schedule.SyncSchedule, t *target) error {
	current, err := e.schedules.GetByID(ctx, sched.ID)
	switch {
	case errors.Is(err, schedule.ErrScheduleNotFound):
		return fmt.Errorf("%w: schedule deleted", ErrCancelled)
	case err != nil:
		return err
	case sched.IsActive && !current.IsActive:
		return fmt.Errorf("%w: schedule deactivated", ErrCancelled)
	}

	conn, err := e.connections.GetByID(ctx, t.conn.ID)
	switch {
	case errors.Is(err, connection.ErrConnectionNotFound):
		return fmt.Errorf("%w: connection deleted", ErrCancelled)
	case err != nil:
		return err
	case conn.IsRevoked():
		return fmt.Errorf("%w: connection revoked", ErrCancelled)
	}

	if _, err := e.models.GetByID(ctx, t.model.ID); err != nil {
		if errors.Is(err, datamodel.ErrDataModelNotFound) {
			return fmt.Errorf("%w: data model deleted", ErrCancelled)
		}
		return err
	}
	return nil
}

// fatalWrite tells storage-level failures apart from errors caused by a
// single record.
func fatalWrite(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone)
}
