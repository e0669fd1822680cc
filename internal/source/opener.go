package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/vvka-141/pgingest/internal/retry"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// Opener resolves a location to a byte stream.
type Opener struct {
	client   *http.Client
	executor *retry.Executor
	logger   pgingest.Logger
}

// NewOpener creates an Opener. A nil client means http.DefaultClient.
// HTTP requests are retried on throttling, 5xx and network errors using
// pgingest defaults.
func NewOpener(client *http.Client, logger pgingest.Logger) *Opener {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	strategy := retry.NewExponentialBackoff(pgingest.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(pgingest.DefaultRetryInitialDelay),
		retry.WithMaxDelay(pgingest.DefaultRetryMaxDelay),
	)
	o := &Opener{client: client, logger: logger}
	o.executor = retry.NewExecutor(retry.NewHTTPErrorClassifier(), strategy).
		WithOnRetry(o.logRetry)
	return o
}

// WithBackoff returns a copy of o using strategy for HTTP retries.
func (o *Opener) WithBackoff(strategy pgingest.BackoffStrategy) *Opener {
	clone := *o
	clone.executor = retry.NewExecutor(retry.NewHTTPErrorClassifier(), strategy).
		WithOnRetry(clone.logRetry)
	return &clone
}

func (o *Opener) logRetry(attempt int, err error, delay time.Duration) {
	o.logger.Verbose("Retrying download (attempt %d) in %v: %v", attempt+1, delay, err)
}

// Open returns the decoded byte stream for location. The caller must Close it.
func (o *Opener) Open(ctx context.Context, location string, compression pgingest.Compression) (io.ReadCloser, error) {
	raw, name, err := o.openRaw(ctx, location)
	if err != nil {
		return nil, err
	}

	if compression == "" || compression == pgingest.CompressionAuto {
		compression = detectCompression(name)
	}

	rc, err := decompress(raw, compression)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("%s: %w: %w", location, pgingest.ErrSourceUnavailable, err)
	}
	return rc, nil
}

// openRaw returns the undecoded stream and the path used for extension sniffing.
func (o *Opener) openRaw(ctx context.Context, location string) (io.ReadCloser, string, error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain path; single-letter "schemes" are Windows drive letters.
		f, err := os.Open(location)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", pgingest.ErrSourceUnavailable, err)
		}
		return f, location, nil
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		f, err := os.Open(u.Path)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", pgingest.ErrSourceUnavailable, err)
		}
		return f, u.Path, nil
	case "http", "https":
		body, err := o.get(ctx, u.String())
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", pgingest.ErrSourceUnavailable, err)
		}
		return body, u.Path, nil
	default:
		return nil, "", fmt.Errorf("unsupported scheme %q in %s: %w", u.Scheme, location, pgingest.ErrSourceUnavailable)
	}
}

// get retries until a 2xx response arrives. Once the body is handed back
// the download is not restarted; a mid-stream failure ends the read.
func (o *Opener) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	return retry.Do(ctx, o.executor, func(ctx context.Context) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := o.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &retry.HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
		}
		o.logger.Verbose("GET %s: %s (%d bytes)", rawURL, resp.Status, resp.ContentLength)
		return resp.Body, nil
	})
}

func detectCompression(name string) pgingest.Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return pgingest.CompressionGzip
	case ".zst", ".zstd":
		return pgingest.CompressionZstd
	default:
		return pgingest.CompressionNone
	}
}

func decompress(raw io.ReadCloser, c pgingest.Compression) (io.ReadCloser, error) {
	switch c {
	case pgingest.CompressionGzip:
		zr, err := gzip.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return &stackedCloser{Reader: zr, closers: []func() error{zr.Close, raw.Close}}, nil
	case pgingest.CompressionZstd:
		zr, err := zstd.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return &stackedCloser{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			raw.Close,
		}}, nil
	default:
		return raw, nil
	}
}

// stackedCloser closes a decoder and then the stream beneath it.
type stackedCloser struct {
	io.Reader
	closers []func() error
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
