package datamodel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typedModel() *DataModel {
	return &DataModel{
		ExternalKeyColumn: "id",
		Fields: []FieldSpec{
			{Name: "id", Type: FieldTypeInteger, Required: true},
			{Name: "name", Type: FieldTypeString, Required: true},
			{Name: "score", Type: FieldTypeNumber},
			{Name: "active", Type: FieldTypeBoolean},
			{Name: "seen_at", Type: FieldTypeDatetime},
		},
	}
}

func TestNormalizeCoercesDeclaredFields(t *testing.T) {
	key, data, err := typedModel().Normalize(map[string]any{
		"id":      "42",
		"name":    7,
		"score":   "1.5",
		"active":  "true",
		"seen_at": "2026-01-02T03:04:05+02:00",
		"ignored": "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "42", key)
	assert.Equal(t, map[string]any{
		"id":      json.Number("42"),
		"name":    "7",
		"score":   json.Number("1.5"),
		"active":  true,
		"seen_at": "2026-01-02T01:04:05Z",
	}, data)
}

func TestNormalizeRejectsBadRecords(t *testing.T) {
	cases := map[string]map[string]any{
		"missing key":      {"name": "a"},
		"missing required": {"id": 1},
		"fractional int":   {"id": 1.5, "name": "a"},
		"bad bool":         {"id": 1, "name": "a", "active": "maybe"},
		"bad number":       {"id": 1, "name": "a", "score": "lots"},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := typedModel().Normalize(raw)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestNormalizeWithoutFieldsKeepsRecord(t *testing.T) {
	m := &DataModel{ExternalKeyColumn: "code"}
	key, data, err := m.Normalize(map[string]any{"code": 12.0, "nested": map[string]any{"a": 1}})
	require.NoError(t, err)

	assert.Equal(t, "12", key)
	assert.Equal(t, map[string]any{"code": json.Number("12"), "nested": map[string]any{"a": json.Number("1")}}, data)
}

func TestEqualIgnoresNumericRepresentation(t *testing.T) {
	a, err := Canonicalize(map[string]any{"n": int64(3), "s": "x"})
	require.NoError(t, err)

	assert.True(t, Equal(a, map[string]any{"s": "x", "n": 3.0}))
	assert.False(t, Equal(a, map[string]any{"s": "y", "n": 3.0}))
}

func TestNormalizeReturnsKeyOfRejectedRecord(t *testing.T) {
	key, data, err := typedModel().Normalize(map[string]any{"id": 7, "name": "a", "score": "lots"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Equal(t, "7", key)
	assert.Nil(t, data)

	key, _, err = typedModel().Normalize(map[string]any{"name": "a"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Empty(t, key)
}

func TestNormalizeKeepsLargeIntegerKeys(t *testing.T) {
	m := &DataModel{ExternalKeyColumn: "id"}
	a, dataA, err := m.Normalize(map[string]any{"id": json.Number("9007199254740993")})
	require.NoError(t, err)
	b, _, err := m.Normalize(map[string]any{"id": json.Number("9007199254740992")})
	require.NoError(t, err)

	assert.Equal(t, "9007199254740993", a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, json.Number("9007199254740993"), dataA["id"])

	typed, data, err := typedModel().Normalize(map[string]any{"id": json.Number("9007199254740993"), "name": "a"})
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", typed)
	assert.Equal(t, json.Number("9007199254740993"), data["id"])
}
