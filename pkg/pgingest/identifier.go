package pgingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
)

var tableNamePart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ParseTableName splits "table" or "schema.table" into a pgx.Identifier.
// Each part must be a plain identifier of at most MaxIdentifierLength bytes.
// Case is preserved; the identifier is always emitted quoted.
func ParseTableName(name string) (pgx.Identifier, error) {
	if name == "" {
		return nil, fmt.Errorf("table name is empty: %w", ErrInvalidIdentifier)
	}

	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("table name %q has more than one '.': %w", name, ErrInvalidIdentifier)
	}
	for _, p := range parts {
		if !tableNamePart.MatchString(p) {
			return nil, fmt.Errorf("table name part %q must start with a letter or underscore and contain only letters, digits, '_' or '$': %w", p, ErrInvalidIdentifier)
		}
		if len(p) > MaxIdentifierLength {
			return nil, fmt.Errorf("table name part %q exceeds %d bytes: %w", p, MaxIdentifierLength, ErrInvalidIdentifier)
		}
	}
	return pgx.Identifier(parts), nil
}

// ValidateColumnName checks a schema field name. Column names come from
// source headers, so any printable text is allowed as long as it fits in a
// quoted identifier.
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("column name is empty: %w", ErrInvalidIdentifier)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("column name %q contains NUL: %w", name, ErrInvalidIdentifier)
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("column name %q exceeds %d bytes: %w", name, MaxIdentifierLength, ErrInvalidIdentifier)
	}
	return nil
}
