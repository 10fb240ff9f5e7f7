package datamodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// Normalize validates a raw remote record against the model and returns its
// natural key and the canonical data to store. Any error wraps ErrInvalidRecord.
// The key is returned with the error whenever it could be extracted.
func (m *DataModel) Normalize(raw map[string]any) (string, map[string]any, error) {
	keyValue, ok := raw[m.ExternalKeyColumn]
	if !ok || keyValue == nil {
		return "", nil, fmt.Errorf("%w: missing natural key %q", ErrInvalidRecord, m.ExternalKeyColumn)
	}
	key, err := cast.ToStringE(keyValue)
	if err != nil || key == "" {
		return "", nil, fmt.Errorf("%w: natural key %q is not a scalar", ErrInvalidRecord, m.ExternalKeyColumn)
	}

	data := make(map[string]any, len(raw))
	if len(m.Fields) == 0 {
		for k, v := range raw {
			data[k] = v
		}
	} else {
		for _, field := range m.Fields {
			value, present := raw[field.Name]
			if !present || value == nil {
				if field.Required {
					return key, nil, fmt.Errorf("%w: field %q is required", ErrInvalidRecord, field.Name)
				}
				continue
			}
			coerced, err := coerce(field, value)
			if err != nil {
				return key, nil, err
			}
			data[field.Name] = coerced
		}
		if _, ok := data[m.ExternalKeyColumn]; !ok {
			data[m.ExternalKeyColumn] = keyValue
		}
	}

	canonical, err := Canonicalize(data)
	if err != nil {
		return key, nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return key, canonical, nil
}

func coerce(field FieldSpec, value any) (any, error) {
	var (
		out any
		err error
	)
	switch field.Type {
	case FieldTypeString:
		out, err = cast.ToStringE(value)
	case FieldTypeInteger:
		if f, ok := value.(float64); ok && f != math.Trunc(f) {
			err = fmt.Errorf("%v has a fractional part", f)
			break
		}
		out, err = cast.ToInt64E(value)
	case FieldTypeNumber:
		out, err = cast.ToFloat64E(value)
	case FieldTypeBoolean:
		out, err = cast.ToBoolE(value)
	case FieldTypeDatetime:
		var t time.Time
		if t, err = cast.ToTimeE(value); err == nil {
			out = t.UTC().Format(time.RFC3339Nano)
		}
	case FieldTypeJSON, "":
		out = value
	default:
		err = fmt.Errorf("unknown field type %q", field.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidRecord, field.Name, err)
	}
	return out, nil
}

// Canonicalize round-trips data through JSON so values compare the same way
// whether they came from a remote source or from storage. Numbers decode as
// json.Number, as they do when read back from a JSON column.
func Canonicalize(data map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	out := make(map[string]any, len(data))
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Equal reports whether two canonical data maps hold the same values.
func Equal(a, b map[string]any) bool {
	ra, err := json.Marshal(a)
	if err != nil {
		return false
	}
	rb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}
