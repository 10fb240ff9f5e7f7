package datamodelrepo

import (
	"context"
	"fmt"

	domain "github.com/dataspaces/syncer/internal/biz/datamodel"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"github.com/google/wire"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

var Provider = wire.NewSet(NewRepositoryImpl)

type RepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &RepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *RepositoryImpl) Create(ctx context.Context, model *domain.DataModel) error {
	po, err := new(DataModelPo).FromDomain(model)
	if err != nil {
		return err
	}
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	model.ID = po.ID
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id string) (*domain.DataModel, error) {
	var po DataModelPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, commonrepo.NotFound(err, domain.ErrDataModelNotFound)
	}
	model, err := po.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("decode fields of data model %s: %w", id, err)
	}
	return model, nil
}

func (r *RepositoryImpl) ListRows(ctx context.Context, modelID, connectionID string) ([]*domain.Row, error) {
	var pos []RowPo
	err := r.Db(ctx).
		Where("data_model_id = ? AND source_connection_id = ?", modelID, connectionID).
		Order("created_at ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po RowPo, _ int) *domain.Row {
		return po.ToDomain()
	}), nil
}

func (r *RepositoryImpl) InsertRow(ctx context.Context, row *domain.Row) error {
	po := new(RowPo).FromDomain(row)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	row.ID = po.ID
	row.CreatedAt = po.CreatedAt
	row.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *RepositoryImpl) UpdateRowData(ctx context.Context, rowID string, data map[string]any) error {
	return r.Db(ctx).Model(&RowPo{}).
		Where("id = ?", rowID).
		Update("data", datatypes.JSONMap(data)).Error
}

// DeleteRow removes a row. Soft deletion keeps it for audit but hides it from
// ListRows.
func (r *RepositoryImpl) DeleteRow(ctx context.Context, rowID string, policy domain.DeletePolicy) error {
	db := r.Db(ctx)
	if policy != domain.DeletePolicySoft {
		db = db.Unscoped()
	}
	return db.Where("id = ?", rowID).Delete(&RowPo{}).Error
}
