package commonrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// DB is the handle repositories are built on: *gorm.DB or a transaction.
type DB interface {
	WithContext(ctx context.Context) *gorm.DB
}

// NotFound maps gorm's not-found error to a domain sentinel.
func NotFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
