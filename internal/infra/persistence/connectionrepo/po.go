package connectionrepo

import (
	"time"

	domain "github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConnectionPo struct {
	commonrepo.Mode
	DeletedAt gorm.DeletedAt `gorm:"index"`

	SpaceID   string                `gorm:"column:space_id;size:36;not null;index"`
	Name      string                `gorm:"column:name;size:255;not null"`
	Type      domain.ConnectionType `gorm:"column:type;size:32;not null"`
	Config    datatypes.JSONMap     `gorm:"column:config"`
	RevokedAt *time.Time            `gorm:"column:revoked_at"`
}

func (ConnectionPo) TableName() string {
	return "external_connections"
}

func (po *ConnectionPo) ToDomain() *domain.Connection {
	return &domain.Connection{
		ID:        po.ID,
		SpaceID:   po.SpaceID,
		Name:      po.Name,
		Type:      po.Type,
		Config:    po.Config,
		RevokedAt: po.RevokedAt,
		DeletedAt: commonrepo.TimePtr(po.DeletedAt),
	}
}

func (po *ConnectionPo) FromDomain(d *domain.Connection) *ConnectionPo {
	out := &ConnectionPo{
		Mode:      commonrepo.Mode{ID: d.ID},
		SpaceID:   d.SpaceID,
		Name:      d.Name,
		Type:      d.Type,
		Config:    d.Config,
		RevokedAt: d.RevokedAt,
	}
	if d.DeletedAt != nil {
		out.DeletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	}
	return out
}
