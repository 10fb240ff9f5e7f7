package datamodelrepo

import (
	"github.com/dataspaces/syncer/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DataModelPo struct {
	commonrepo.Mode
	DeletedAt gorm.DeletedAt `gorm:"index"`

	SpaceID           string         `gorm:"column:space_id;size:36;not null;index"`
	Name              string         `gorm:"column:name;size:255;not null"`
	ExternalKeyColumn string         `gorm:"column:external_key_column;size:255"`
	DeletePolicy      string         `gorm:"column:delete_policy;size:16;not null;default:hard"`
	Fields            datatypes.JSON `gorm:"column:fields"`
}

func (DataModelPo) TableName() string {
	return "data_models"
}

type RowPo struct {
	commonrepo.Mode
	DeletedAt gorm.DeletedAt `gorm:"index"`

	DataModelID        string            `gorm:"column:data_model_id;size:36;not null;index:idx_data_model_rows_source,priority:1"`
	SourceConnectionID string            `gorm:"column:source_connection_id;size:36;not null;index:idx_data_model_rows_source,priority:2"`
	ExternalKey        string            `gorm:"column:external_key;size:512;not null;index:idx_data_model_rows_source,priority:3"`
	Data               datatypes.JSONMap `gorm:"column:data"`
}

func (RowPo) TableName() string {
	return "data_model_rows"
}
