package connectionrepo

import (
	"context"
	"time"

	domain "github.com/dataspaces/syncer/internal/biz/connection"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"github.com/google/wire"
)

var Provider = wire.NewSet(NewRepositoryImpl)

type RepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &RepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *RepositoryImpl) Create(ctx context.Context, conn *domain.Connection) error {
	po := new(ConnectionPo).FromDomain(conn)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	conn.ID = po.ID
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	var po ConnectionPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, commonrepo.NotFound(err, domain.ErrConnectionNotFound)
	}
	return po.ToDomain(), nil
}

func (r *RepositoryImpl) Revoke(ctx context.Context, id string, at time.Time) error {
	res := r.Db(ctx).Model(&ConnectionPo{}).Where("id = ?", id).Update("revoked_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConnectionNotFound
	}
	return nil
}
