package pgingest

import (
	"fmt"
	"strings"
)

// Batch is one chunk of coerced rows. Values in Rows follow Columns order
// and hold int64, float64, string, time.Time, or nil.
type Batch struct {
	// Index is the 0-based chunk number within the run.
	Index int

	// FirstRow is the 1-based data row number of Rows[0].
	FirstRow int64

	Columns []string
	Rows    [][]any
}

// Len returns the number of rows in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

// Compression selects how the source byte stream is decoded.
type Compression string

const (
	CompressionAuto Compression = "auto" // pick from the location's extension
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression normalises a user-supplied compression name.
// The empty string means CompressionAuto.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CompressionAuto, nil
	case CompressionAuto, CompressionNone, CompressionGzip, CompressionZstd:
		return c, nil
	case "gz":
		return CompressionGzip, nil
	case "zst":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want auto, none, gzip or zstd): %w", s, ErrInvalidConfig)
	}
}

// SourceConfig describes what to read and how to shape it.
type SourceConfig struct {
	// Location is a local path, a file:// URL, or an http(s):// URL.
	Location string

	Schema      Schema
	ChunkSize   int
	Delimiter   rune
	Compression Compression
}
