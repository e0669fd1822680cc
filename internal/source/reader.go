package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/vvka-141/pgingest/internal/schema"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// CSVSource implements pgingest.BatchSource for delimited text with a header row.
type CSVSource struct {
	opener *Opener
}

func NewCSVSource(opener *Opener) *CSVSource {
	if opener == nil {
		panic("opener cannot be nil")
	}
	return &CSVSource{opener: opener}
}

// Open reads the header and matches it against cfg.Schema. A source with no
// bytes at all reports pgingest.ErrEmptySource; a header-only source opens
// fine and yields io.EOF on the first Next.
func (s *CSVSource) Open(ctx context.Context, cfg pgingest.SourceConfig) (pgingest.BatchReader, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d: %w", cfg.ChunkSize, pgingest.ErrInvalidConfig)
	}

	stream, err := s.opener.Open(ctx, cfg.Location, cfg.Compression)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(stream)
	if cfg.Delimiter != 0 {
		cr.Comma = cfg.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		stream.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", cfg.Location, pgingest.ErrEmptySource)
		}
		return nil, fmt.Errorf("read header of %s: %w", cfg.Location, classifyReadError(err))
	}

	proj, err := schema.Project(header, cfg.Schema)
	if err != nil {
		stream.Close()
		return nil, fmt.Errorf("%s: %w", cfg.Location, err)
	}

	return &ChunkReader{
		stream:    stream,
		csv:       cr,
		proj:      proj,
		columns:   proj.Columns(),
		chunkSize: cfg.ChunkSize,
	}, nil
}

// ChunkReader yields batches of at most chunkSize coerced rows.
type ChunkReader struct {
	stream    io.ReadCloser
	csv       *csv.Reader
	proj      *schema.Projection
	columns   []string
	chunkSize int

	index int
	rows  int64 // data rows consumed so far
	done  bool
}

// Next returns the next batch or io.EOF. A batch containing a row that
// fails coercion is discarded whole and the error returned.
func (r *ChunkReader) Next(ctx context.Context) (*pgingest.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.done {
		return nil, io.EOF
	}

	batch := &pgingest.Batch{
		Index:    r.index,
		FirstRow: r.rows + 1,
		Columns:  r.columns,
		Rows:     make([][]any, 0, min(r.chunkSize, 4096)),
	}

	for len(batch.Rows) < r.chunkSize {
		record, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			r.done = true
			break
		}
		if err != nil {
			r.done = true
			return nil, fmt.Errorf("row %d: %w", r.rows+1, classifyReadError(err))
		}

		r.rows++
		row, err := r.proj.Row(record, r.rows)
		if err != nil {
			r.done = true
			return nil, err
		}
		batch.Rows = append(batch.Rows, row)
	}

	if len(batch.Rows) == 0 {
		return nil, io.EOF
	}
	r.index++
	return batch, nil
}

// Columns returns the output column names in schema order.
func (r *ChunkReader) Columns() []string {
	return r.columns
}

// RowsRead is the number of data rows consumed so far.
func (r *ChunkReader) RowsRead() int64 {
	return r.rows
}

func (r *ChunkReader) Close() error {
	if r.stream == nil {
		return nil
	}
	err := r.stream.Close()
	r.stream = nil
	return err
}

// classifyReadError separates bad CSV from failing I/O.
func classifyReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %w", pgingest.ErrMalformedSource, err)
	}
	return fmt.Errorf("%w: %w", pgingest.ErrSourceUnavailable, err)
}
