package datamodel

import (
	"context"
)

type Repo interface {
	Create(ctx context.Context, model *DataModel) error
	// GetByID returns ErrDataModelNotFound for unknown or deleted models.
	GetByID(ctx context.Context, id string) (*DataModel, error)

	// ListRows returns the live rows of a model sourced from one connection.
	ListRows(ctx context.Context, modelID, connectionID string) ([]*Row, error)
	InsertRow(ctx context.Context, row *Row) error
	UpdateRowData(ctx context.Context, rowID string, data map[string]any) error
	DeleteRow(ctx context.Context, rowID string, policy DeletePolicy) error
}
