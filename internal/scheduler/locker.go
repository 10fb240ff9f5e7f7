package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dataspaces/syncer/internal/orm"
	"github.com/dataspaces/syncer/pkg/config"
	"go.uber.org/zap"
)

// PgLocker is a PostgreSQL transaction-scoped advisory lock. The lock lives as
// long as the transaction opened by WithTryLock, so it can never outlive the
// work it guards.
type PgLocker struct {
	db     *sql.DB
	key    int64
	logger *zap.Logger
}

func NewPgLocker(db *sql.DB, key int64, logger *zap.Logger) *PgLocker {
	return &PgLocker{db: db, key: key, logger: logger}
}

// ProvideLocker returns nil when leader locking is off.
func ProvideLocker(cfg config.Config, storage *orm.Storage, logger *zap.Logger) (TickLocker, error) {
	if !cfg.Scheduler.LeaderLock {
		return nil, nil
	}
	sqlDB, err := storage.DB().DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	logger = logger.Named("locker")
	switch storage.Driver() {
	case "postgres":
		return NewPgLocker(sqlDB, cfg.Scheduler.LockKey, logger), nil
	case "mysql":
		return NewMySQLLocker(sqlDB, "syncer_tick_"+strconv.FormatInt(cfg.Scheduler.LockKey, 10), logger), nil
	default:
		return nil, fmt.Errorf("%w: driver is %s", ErrLockUnsupported, storage.Driver())
	}
}

// WithTryLock runs fn while holding the lock. It reports false without
// calling fn when another session holds it.
func (l *PgLocker) WithTryLock(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin lock transaction: %w", err)
	}
	// rollback ends the transaction and with it the lock
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			l.logger.Error("failed to release tick lock", zap.Int64("lock_key", l.key), zap.Error(err))
		}
	}()

	var locked bool
	if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1)", l.key).Scan(&locked); err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return false, nil
	}

	l.logger.Debug("acquired tick lock", zap.Int64("lock_key", l.key))
	return true, fn(ctx)
}

// MySQLLocker is a MySQL named lock. GET_LOCK is bound to the session, so the
// lock is taken and released on one pinned connection.
type MySQLLocker struct {
	db       *sql.DB
	lockName string
	logger   *zap.Logger
}

func NewMySQLLocker(db *sql.DB, lockName string, logger *zap.Logger) *MySQLLocker {
	return &MySQLLocker{db: db, lockName: lockName, logger: logger}
}

func (l *MySQLLocker) WithTryLock(ctx context.Context, fn func(ctx context.Context) error) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get lock connection: %w", err)
	}
	defer conn.Close()

	// GET_LOCK returns 1 when acquired, 0 on timeout and NULL on error
	var result sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", l.lockName).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !result.Valid {
		return false, errors.New("lock query returned NULL")
	}
	if result.Int64 != 1 {
		return false, nil
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), "SELECT RELEASE_LOCK(?)", l.lockName); err != nil {
			l.logger.Error("failed to release tick lock", zap.String("lock_name", l.lockName), zap.Error(err))
		}
	}()

	l.logger.Debug("acquired tick lock", zap.String("lock_name", l.lockName))
	return true, fn(ctx)
}
