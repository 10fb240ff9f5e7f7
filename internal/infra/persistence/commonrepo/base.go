package commonrepo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Mode struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (m *Mode) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func TimePtr(t gorm.DeletedAt) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
