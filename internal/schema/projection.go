package schema

import (
	"fmt"
	"strings"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

const utf8BOM = "\ufeff"

// Projection maps source columns onto schema fields. Source columns the
// schema does not name are skipped.
type Projection struct {
	fields  []pgingest.Field
	indices []int // indices[i] is the source column for fields[i]
	width   int
	coercer *Coercer
}

// Project matches header names against s. Every schema field must be
// present in the header; otherwise the error wraps ErrSchemaMismatch and
// lists what is missing.
func Project(header []string, s pgingest.Schema) (*Projection, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	p := &Projection{
		fields:  s.Fields,
		indices: make([]int, len(s.Fields)),
		width:   len(header),
		coercer: NewCoercer(s.TimestampLayouts),
	}

	var missing []string
	for i, f := range s.Fields {
		idx, ok := positions[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		p.indices[i] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing column(s) %s: %w", strings.Join(missing, ", "), pgingest.ErrSchemaMismatch)
	}
	return p, nil
}

// Columns returns the schema column names in output order.
func (p *Projection) Columns() []string {
	cols := make([]string, len(p.fields))
	for i, f := range p.fields {
		cols[i] = f.Name
	}
	return cols
}

// Row coerces one record. rowNum is the 1-based data row used in errors.
// Short records are padded with missing values; records wider than the
// header are malformed.
func (p *Projection) Row(record []string, rowNum int64) ([]any, error) {
	if len(record) > p.width {
		return nil, fmt.Errorf("row %d has %d fields, header has %d: %w", rowNum, len(record), p.width, pgingest.ErrSchemaMismatch)
	}

	out := make([]any, len(p.fields))
	for i, f := range p.fields {
		idx := p.indices[i]
		if idx >= len(record) {
			continue
		}
		v, err := p.coercer.Coerce(f.Type, record[idx])
		if err != nil {
			return nil, &pgingest.CoercionError{
				Column: f.Name,
				Row:    rowNum,
				Value:  preview(record[idx]),
				Type:   f.Type,
				Err:    err,
			}
		}
		out[i] = v
	}
	return out, nil
}

func preview(s string) string {
	if len(s) <= pgingest.MaxErrorPreviewLength {
		return s
	}
	return s[:pgingest.MaxErrorPreviewLength] + "..."
}
