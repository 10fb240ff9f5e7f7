package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

type SchedulerConfig struct {
	InstanceID     string        `mapstructure:"instance_id"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxWorkers     int           `mapstructure:"max_workers"`
	Timezone       string        `mapstructure:"timezone"`
	StaleAfter     time.Duration `mapstructure:"stale_after"`
	AutoResetStale bool          `mapstructure:"auto_reset_stale"`
	TickEnabled    bool          `mapstructure:"tick_enabled"`
	TickSpec       string        `mapstructure:"tick_spec"`
	LeaderLock     bool          `mapstructure:"leader_lock"`
	LockKey        int64         `mapstructure:"lock_key"`
}

// Location resolves Timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type SyncConfig struct {
	PageSize     int           `mapstructure:"page_size"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	RunTimeout   time.Duration `mapstructure:"run_timeout"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

type DatabaseConfig struct {
	Driver                string        `mapstructure:"driver"`
	DSN                   string        `mapstructure:"dsn"`
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	Database              string        `mapstructure:"database"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	SSLMode               string        `mapstructure:"ssl_mode"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	AutoMigrate           bool          `mapstructure:"auto_migrate"`
	LogLevel              string        `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scheduler.instance_id", "syncer-001")
	v.SetDefault("scheduler.batch_size", 50)
	v.SetDefault("scheduler.max_workers", 4)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.stale_after", "1h")
	v.SetDefault("scheduler.auto_reset_stale", true)
	v.SetDefault("scheduler.tick_enabled", false)
	v.SetDefault("scheduler.tick_spec", "@every 1m")
	v.SetDefault("scheduler.leader_lock", false)
	v.SetDefault("scheduler.lock_key", 7310021)

	v.SetDefault("sync.page_size", 500)
	v.SetDefault("sync.fetch_timeout", "30s")
	v.SetDefault("sync.run_timeout", "30m")
	v.SetDefault("sync.store_timeout", "10s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_idle_connections", 10)
	v.SetDefault("database.connection_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.max_header_bytes", 1048576)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "syncer:execution-events")
}

// Load reads the YAML file at configPath. Every key can be overridden from the
// environment, e.g. SYNCER_DATABASE_HOST.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SYNCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration built from defaults only.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func (c *Config) Validate() error {
	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("scheduler.batch_size must be positive")
	}
	if c.Scheduler.MaxWorkers <= 0 {
		return fmt.Errorf("scheduler.max_workers must be positive")
	}
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be positive")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone: %w", err)
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	return nil
}
