package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/errors"
)

// ColumnType is the declared type of a column
type ColumnType string

const (
	ColumnTypeString      ColumnType = "STRING"
	ColumnTypeDouble      ColumnType = "DOUBLE"
	ColumnTypeInt         ColumnType = "INT"
	ColumnTypeBoolean     ColumnType = "BOOLEAN"
	ColumnTypeUTCDateTime ColumnType = "UTC_DATETIME"
)

// Compatible reports whether v may be stored in a column of this type.
// Null is compatible with every type.
func (t ColumnType) Compatible(v interface{}) bool {
	if v == nil {
		return true
	}

	switch t {
	case ColumnTypeString:
		_, ok := v.(string)
		return ok
	case ColumnTypeDouble:
		_, ok := v.(float64)
		return ok
	case ColumnTypeInt:
		_, ok := v.(int64)
		return ok
	case ColumnTypeBoolean:
		_, ok := v.(bool)
		return ok
	case ColumnTypeUTCDateTime:
		ts, ok := v.(time.Time)
		return ok && ts.Location() == time.UTC
	default:
		return false
	}
}

// Column is one declared column
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// TableSchema declares a destination table. It is defined once and never mutated.
type TableSchema struct {
	Table      string   `json:"table"`
	PrimaryKey []string `json:"primary_key"`
	Columns    []Column `json:"columns"`
}

// Validate checks the declaration itself
func (s *TableSchema) Validate() error {
	if s.Table == "" {
		return errors.New(errors.ErrorTypeValidation, "table name is required")
	}
	if len(s.Columns) == 0 {
		return errors.Newf(errors.ErrorTypeValidation, "table %s declares no columns", s.Table)
	}

	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == "" {
			return errors.Newf(errors.ErrorTypeValidation, "table %s has an unnamed column", s.Table)
		}
		if _, dup := seen[c.Name]; dup {
			return errors.Newf(errors.ErrorTypeValidation, "table %s declares column %s twice", s.Table, c.Name)
		}
		if !knownType(c.Type) {
			return errors.Newf(errors.ErrorTypeValidation, "column %s has unknown type %q", c.Name, c.Type)
		}
		seen[c.Name] = struct{}{}
	}

	if len(s.PrimaryKey) == 0 {
		return errors.Newf(errors.ErrorTypeValidation, "table %s has no primary key", s.Table)
	}
	for _, k := range s.PrimaryKey {
		if _, ok := seen[k]; !ok {
			return errors.Newf(errors.ErrorTypeValidation, "primary key column %s is not declared", k)
		}
	}
	return nil
}

// Column looks up a column by name
func (s *TableSchema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// IsKey reports whether name is part of the primary key
func (s *TableSchema) IsKey(name string) bool {
	for _, k := range s.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// Key returns the primary key values of r in declared order.
// A null key column is an identity defect and returns an error.
func (s *TableSchema) Key(r Record) ([]interface{}, error) {
	key := make([]interface{}, len(s.PrimaryKey))
	for i, k := range s.PrimaryKey {
		v := r[k]
		if v == nil {
			return nil, errors.Newf(errors.ErrorTypeValidation, "primary key column %s is null", k).
				WithDetail("table", s.Table)
		}
		key[i] = v
	}
	return key, nil
}

// KeyString renders the primary key of r as a single string, joining
// composite keys with '|'. It is used by sinks that need a scalar key.
func (s *TableSchema) KeyString(r Record) (string, error) {
	key, err := s.Key(r)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(key))
	for i, v := range key {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "|"), nil
}

// CheckRecord verifies that r matches the declaration: every column present,
// no extra columns, each value of the declared type and the key non-null.
func (s *TableSchema) CheckRecord(r Record) error {
	if len(r) != len(s.Columns) {
		for name := range r {
			if _, ok := s.Column(name); !ok {
				return errors.Newf(errors.ErrorTypeValidation, "column %s is not declared", name)
			}
		}
	}

	for _, c := range s.Columns {
		v, ok := r[c.Name]
		if !ok {
			return errors.Newf(errors.ErrorTypeValidation, "column %s is missing", c.Name)
		}
		if !c.Type.Compatible(v) {
			return errors.Newf(errors.ErrorTypeValidation, "column %s: %T is not compatible with %s", c.Name, v, c.Type)
		}
	}

	_, err := s.Key(r)
	return err
}

func knownType(t ColumnType) bool {
	switch t {
	case ColumnTypeString, ColumnTypeDouble, ColumnTypeInt, ColumnTypeBoolean, ColumnTypeUTCDateTime:
		return true
	default:
		return false
	}
}
