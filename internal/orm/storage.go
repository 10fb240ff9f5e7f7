package orm

import (
	"fmt"
	"time"

	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/connectionrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/datamodelrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/executionrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/memberrepo"
	"github.com/dataspaces/syncer/internal/infra/persistence/schedulerepo"
	"github.com/dataspaces/syncer/pkg/config"
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Provider exposes an opened Storage to the repositories.
var Provider = wire.NewSet(ProvideDB)

type Storage struct {
	db     *gorm.DB
	driver string
}

// Models lists every table the syncer owns, referenced tables first.
func Models() []any {
	return []any{
		&connectionrepo.ConnectionPo{},
		&datamodelrepo.DataModelPo{},
		&datamodelrepo.RowPo{},
		&schedulerepo.SyncSchedulePo{},
		&executionrepo.SyncExecutionPo{},
		&memberrepo.SpaceMemberPo{},
	}
}

func New(cfg config.DatabaseConfig, log *zap.Logger) (*Storage, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// a single connection keeps in-memory databases shared and serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)
		sqlDB.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)
	}

	s := &Storage{db: db, driver: cfg.Driver}
	if cfg.AutoMigrate {
		if err := s.AutoMigrate(); err != nil {
			return nil, err
		}
		log.Info("database schema migrated", zap.String("driver", cfg.Driver))
	}
	return s, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(PostgresDSN(cfg)), nil
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		}
		return mysql.Open(dsn), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// PostgresDSN returns cfg.DSN, or a keyword/value DSN built from the
// connection fields.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// ProvideDB exposes the gorm handle to the repositories.
func ProvideDB(s *Storage) commonrepo.DB {
	return s.db
}

// AutoMigrate creates or updates the schema from the persistence models.
func (s *Storage) AutoMigrate() error {
	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Storage) DB() *gorm.DB {
	return s.db
}

func (s *Storage) Driver() string {
	return s.driver
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
