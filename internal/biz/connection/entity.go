package connection

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cast"
)

var (
	ErrConnectionNotFound = errors.New("external connection not found")
	ErrConnectionRevoked  = errors.New("external connection revoked")
)

type ConnectionType string

const (
	ConnectionTypeHTTP     ConnectionType = "http"
	ConnectionTypePostgres ConnectionType = "postgres"
	ConnectionTypeMySQL    ConnectionType = "mysql"
	ConnectionTypeSQLite   ConnectionType = "sqlite"
	ConnectionTypeMongoDB  ConnectionType = "mongodb"
)

// Connection holds the parameters of an external data source registered in a
// space. Config keys depend on Type.
type Connection struct {
	ID        string
	SpaceID   string
	Name      string
	Type      ConnectionType
	Config    map[string]any
	RevokedAt *time.Time
	DeletedAt *time.Time
}

func (c *Connection) IsRevoked() bool {
	return c.RevokedAt != nil
}

func (c *Connection) String(key string) string {
	return cast.ToString(c.Config[key])
}

func (c *Connection) StringOr(key, fallback string) string {
	if v := c.String(key); v != "" {
		return v
	}
	return fallback
}

func (c *Connection) Int(key string, fallback int) int {
	v, err := cast.ToIntE(c.Config[key])
	if err != nil || v == 0 {
		return fallback
	}
	return v
}

type Repo interface {
	Create(ctx context.Context, conn *Connection) error
	// GetByID returns ErrConnectionNotFound for unknown or deleted connections.
	GetByID(ctx context.Context, id string) (*Connection, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}
