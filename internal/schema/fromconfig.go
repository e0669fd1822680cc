package schema

import (
	"fmt"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// FromConfig turns a YAML schema into a pgingest.Schema. Columns named in
// parse_dates become timestamps whatever their declared type, matching how
// dtype maps and parse_dates lists are usually written side by side.
func FromConfig(sc *config.SchemaConfig) (pgingest.Schema, error) {
	if sc == nil || len(sc.Columns) == 0 {
		return pgingest.Schema{}, fmt.Errorf("schema lists no columns: %w", pgingest.ErrInvalidConfig)
	}

	s := pgingest.Schema{
		Fields:           make([]pgingest.Field, 0, len(sc.Columns)),
		TimestampLayouts: sc.TimestampLayouts,
	}
	for _, col := range sc.Columns {
		t, err := pgingest.ParseFieldType(col.Type)
		if err != nil {
			return pgingest.Schema{}, fmt.Errorf("column %q: %w", col.Name, err)
		}
		s.Fields = append(s.Fields, pgingest.Field{Name: col.Name, Type: t})
	}

	for _, name := range sc.ParseDates {
		found := false
		for i := range s.Fields {
			if s.Fields[i].Name == name {
				s.Fields[i].Type = pgingest.FieldTimestamp
				found = true
			}
		}
		if !found {
			return pgingest.Schema{}, fmt.Errorf("parse_dates names unknown column %q: %w", name, pgingest.ErrInvalidConfig)
		}
	}

	return s, s.Validate()
}

// ToConfig is the inverse of FromConfig, used when writing starter files.
func ToConfig(s pgingest.Schema) *config.SchemaConfig {
	sc := &config.SchemaConfig{TimestampLayouts: s.TimestampLayouts}
	for _, f := range s.Fields {
		sc.Columns = append(sc.Columns, config.ColumnConfig{Name: f.Name, Type: f.Type.String()})
	}
	return sc
}
