package datamodelrepo

import (
	"encoding/json"

	domain "github.com/dataspaces/syncer/internal/biz/datamodel"
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"gorm.io/gorm"
)

func (po *DataModelPo) ToDomain() (*domain.DataModel, error) {
	var fields []domain.FieldSpec
	if len(po.Fields) > 0 {
		if err := json.Unmarshal(po.Fields, &fields); err != nil {
			return nil, err
		}
	}
	return &domain.DataModel{
		ID:                po.ID,
		SpaceID:           po.SpaceID,
		Name:              po.Name,
		ExternalKeyColumn: po.ExternalKeyColumn,
		DeletePolicy:      domain.DeletePolicy(po.DeletePolicy),
		Fields:            fields,
		DeletedAt:         commonrepo.TimePtr(po.DeletedAt),
	}, nil
}

func (po *DataModelPo) FromDomain(d *domain.DataModel) (*DataModelPo, error) {
	out := &DataModelPo{
		Mode:              commonrepo.Mode{ID: d.ID},
		SpaceID:           d.SpaceID,
		Name:              d.Name,
		ExternalKeyColumn: d.ExternalKeyColumn,
		DeletePolicy:      string(d.DeletePolicy),
	}
	if out.DeletePolicy == "" {
		out.DeletePolicy = string(domain.DeletePolicyHard)
	}
	if len(d.Fields) > 0 {
		raw, err := json.Marshal(d.Fields)
		if err != nil {
			return nil, err
		}
		out.Fields = raw
	}
	if d.DeletedAt != nil {
		out.DeletedAt = gorm.DeletedAt{Time: *d.DeletedAt, Valid: true}
	}
	return out, nil
}

func (po *RowPo) ToDomain() *domain.Row {
	return &domain.Row{
		ID:                 po.ID,
		DataModelID:        po.DataModelID,
		SourceConnectionID: po.SourceConnectionID,
		ExternalKey:        po.ExternalKey,
		Data:               po.Data,
		CreatedAt:          po.CreatedAt,
		UpdatedAt:          po.UpdatedAt,
	}
}

func (po *RowPo) FromDomain(d *domain.Row) *RowPo {
	return &RowPo{
		Mode: commonrepo.Mode{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		DataModelID:        d.DataModelID,
		SourceConnectionID: d.SourceConnectionID,
		ExternalKey:        d.ExternalKey,
		Data:               d.Data,
	}
}
