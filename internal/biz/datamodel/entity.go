package datamodel

import (
	"errors"
	"time"
)

var (
	ErrDataModelNotFound = errors.New("data model not found")
	ErrInvalidRecord     = errors.New("invalid record")
)

type DeletePolicy string

const (
	DeletePolicyHard DeletePolicy = "hard"
	DeletePolicySoft DeletePolicy = "soft"
)

type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDatetime FieldType = "datetime"
	FieldTypeJSON     FieldType = "json"
)

type FieldSpec struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

type DataModel struct {
	ID                string
	SpaceID           string
	Name              string
	ExternalKeyColumn string
	DeletePolicy      DeletePolicy
	Fields            []FieldSpec
	DeletedAt         *time.Time
}

// HasNaturalKey reports whether remote records can be matched to local rows.
func (m *DataModel) HasNaturalKey() bool {
	return m.ExternalKeyColumn != ""
}

// Row is one stored record of a data model that was sourced from an external
// connection.
type Row struct {
	ID                 string
	DataModelID        string
	SourceConnectionID string
	ExternalKey        string
	Data               map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
