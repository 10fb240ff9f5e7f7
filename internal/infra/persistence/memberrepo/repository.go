package memberrepo

import (
	"context"
	"time"

	"github.com/dataspaces/syncer/internal/biz/access"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"github.com/google/wire"
)

var Provider = wire.NewSet(NewRepositoryImpl)

// SpaceMemberPo mirrors the platform's membership table. The syncer only
// reads it.
type SpaceMemberPo struct {
	SpaceID   string    `gorm:"column:space_id;size:36;primaryKey"`
	UserID    string    `gorm:"column:user_id;size:64;primaryKey"`
	Role      string    `gorm:"column:role;size:32"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SpaceMemberPo) TableName() string {
	return "space_members"
}

type RepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewRepositoryImpl(db commonrepo.DB) access.MembershipRepo {
	return &RepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *RepositoryImpl) IsMember(ctx context.Context, spaceID, userID string) (bool, error) {
	var count int64
	err := r.Db(ctx).Model(&SpaceMemberPo{}).
		Where("space_id = ? AND user_id = ?", spaceID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts a membership. It exists for seeding and tests.
func (r *RepositoryImpl) Add(ctx context.Context, spaceID, userID, role string) error {
	return r.Db(ctx).Create(&SpaceMemberPo{SpaceID: spaceID, UserID: userID, Role: role}).Error
}
