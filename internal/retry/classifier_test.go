package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPostgreSQLErrorClassifier(t *testing.T) {
	c := NewPostgreSQLErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure 08006", &pgconn.PgError{Code: "08006"}, true},
		{"cannot connect now 57P03", &pgconn.PgError{Code: "57P03"}, true},
		{"too many connections 53300", &pgconn.PgError{Code: "53300"}, true},
		{"serialization failure 40001", &pgconn.PgError{Code: "40001"}, true},
		{"lock not available 55P03", &pgconn.PgError{Code: "55P03"}, true},
		{"invalid password 28P01", &pgconn.PgError{Code: "28P01"}, false},
		{"undefined table 42P01", &pgconn.PgError{Code: "42P01"}, false},
		{"invalid text representation 22P02", &pgconn.PgError{Code: "22P02"}, false},
		{"wrapped pg error", fmt.Errorf("copy: %w", &pgconn.PgError{Code: "08003"}), true},
		{"connection refused errno", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"connection reset errno", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"temporary dns", &net.DNSError{Err: "timeout", IsTemporary: true}, true},
		{"permanent dns", &net.DNSError{Err: "not found", IsNotFound: true}, false},
		{"message only", errors.New("read: connection reset by peer"), true},
		{"unrelated", errors.New("syntax error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}

func TestHTTPErrorClassifier(t *testing.T) {
	c := NewHTTPErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"404", &HTTPStatusError{URL: "u", StatusCode: 404}, false},
		{"403", &HTTPStatusError{URL: "u", StatusCode: 403}, false},
		{"408", &HTTPStatusError{URL: "u", StatusCode: 408}, true},
		{"429", &HTTPStatusError{URL: "u", StatusCode: 429}, true},
		{"500", &HTTPStatusError{URL: "u", StatusCode: 500}, true},
		{"503 wrapped", fmt.Errorf("open: %w", &HTTPStatusError{URL: "u", StatusCode: 503}), true},
		{"unexpected eof", fmt.Errorf("read body: %w", io.ErrUnexpectedEOF), true},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"cancelled", context.Canceled, false},
		{"other", errors.New("unsupported protocol scheme"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}

func TestHTTPStatusError_Message(t *testing.T) {
	err := &HTTPStatusError{URL: "https://example.com/a.csv", StatusCode: 404}
	assert.Equal(t, "GET https://example.com/a.csv: 404 Not Found", err.Error())
}
