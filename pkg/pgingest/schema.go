package pgingest

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is the target type a source column is coerced to.
type FieldType int

const (
	FieldText      FieldType = iota // UTF-8 text
	FieldInt64                      // nullable 64-bit integer
	FieldFloat64                    // 64-bit float
	FieldTimestamp                  // calendar timestamp without zone
)

// String returns the canonical lowercase name used in schema files.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldInt64:
		return "int64"
	case FieldFloat64:
		return "float64"
	case FieldTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// IsValid returns true if the FieldType is a defined value.
func (t FieldType) IsValid() bool {
	return t >= FieldText && t <= FieldTimestamp
}

// SQLType returns the PostgreSQL column type for t.
func (t FieldType) SQLType() string {
	switch t {
	case FieldInt64:
		return "BIGINT"
	case FieldFloat64:
		return "DOUBLE PRECISION"
	case FieldTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// ParseFieldType accepts the canonical names plus the spellings commonly
// found in dataframe dtype maps ("Int64", "string", "datetime64[ns]").
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "str", "varchar":
		return FieldText, nil
	case "int64", "int", "integer", "bigint":
		return FieldInt64, nil
	case "float64", "float", "double", "double precision":
		return FieldFloat64, nil
	case "timestamp", "datetime", "datetime64", "datetime64[ns]":
		return FieldTimestamp, nil
	default:
		return 0, fmt.Errorf("unknown field type %q: %w", s, ErrInvalidConfig)
	}
}

// Field is one named, typed column.
type Field struct {
	Name string
	Type FieldType
}

// Schema is the ordered set of fields every batch is coerced to.
// Column order in the sink table follows Fields order.
type Schema struct {
	Fields []Field

	// TimestampLayouts are tried in order when parsing FieldTimestamp values.
	// Empty means the reader's built-in layouts.
	TimestampLayouts []string
}

// Columns returns field names in order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// TimestampFields returns the names of fields parsed as dates.
func (s Schema) TimestampFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Type == FieldTimestamp {
			names = append(names, f.Name)
		}
	}
	return names
}

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks that the schema is non-empty, names are unique and usable
// as quoted identifiers, and every type is defined.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields: %w", ErrInvalidConfig)
	}

	var errs []error
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if err := ValidateColumnName(f.Name); err != nil {
			errs = append(errs, fmt.Errorf("field %d: %w", i, err))
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate field %q: %w", f.Name, ErrInvalidConfig))
		}
		seen[f.Name] = true
		if !f.Type.IsValid() {
			errs = append(errs, fmt.Errorf("field %q has invalid type %v: %w", f.Name, f.Type, ErrInvalidConfig))
		}
	}
	return errors.Join(errs...)
}
