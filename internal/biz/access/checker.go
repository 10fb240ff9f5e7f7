package access

import (
	"context"
	"errors"

	"github.com/google/wire"
)

var Provider = wire.NewSet(NewChecker)

var (
	ErrUnauthenticated = errors.New("caller identity missing")
	ErrForbidden       = errors.New("caller is not a member of the space")
)

// MembershipRepo is the platform's space membership table.
type MembershipRepo interface {
	IsMember(ctx context.Context, spaceID, userID string) (bool, error)
}

// Checker enforces space membership on read endpoints. Role evaluation stays
// with the platform.
type Checker struct {
	repo MembershipRepo
}

func NewChecker(repo MembershipRepo) *Checker {
	return &Checker{repo: repo}
}

func (c *Checker) RequireMember(ctx context.Context, spaceID, userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	ok, err := c.repo.IsMember(ctx, spaceID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
