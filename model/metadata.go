package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/extractor/helper"
)

// Metadata represents an open, arbitrarily nested value bag. It is
// stored as JSONB in PostgreSQL and round-trips through JSON unchanged.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if s, ok := value.(Metadata); ok {
		*m = Metadata(s)
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}

// Union merges other into m key by key: list values are concatenated,
// nested maps are merged recursively and scalar values are overwritten.
// List concatenation keeps accumulated values such as observation
// records intact when two bags for the same record are combined.
func (m Metadata) Union(other Metadata) {
	for key, newValue := range other {
		existing, ok := m[key]
		if !ok {
			m[key] = newValue
			continue
		}

		switch newTyped := newValue.(type) {
		case []interface{}:
			if existingList, ok := existing.([]interface{}); ok {
				m[key] = append(existingList, newTyped...)
				continue
			}
			m[key] = newValue
		case map[string]interface{}:
			if existingMap, ok := existing.(map[string]interface{}); ok {
				Metadata(existingMap).Union(newTyped)
				continue
			}
			if existingMeta, ok := existing.(Metadata); ok {
				existingMeta.Union(newTyped)
				continue
			}
			m[key] = newValue
		case Metadata:
			if existingMap, ok := existing.(map[string]interface{}); ok {
				Metadata(existingMap).Union(map[string]interface{}(newTyped))
				continue
			}
			if existingMeta, ok := existing.(Metadata); ok {
				existingMeta.Union(map[string]interface{}(newTyped))
				continue
			}
			m[key] = newValue
		default:
			m[key] = newValue
		}
	}
}
