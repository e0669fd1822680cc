package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vvka-141/pgingest/pkg/pgingest"
)

func TestWrapConnectionError_Guidance(t *testing.T) {
	tests := map[string]struct {
		cause string
		host  string
		want  []string
	}{
		"refused": {
			cause: "dial tcp 127.0.0.1:5432: connect: connection refused",
			host:  "127.0.0.1",
			want:  []string{"connection refused to 127.0.0.1:5432", "pg_isready -h 127.0.0.1 -p 5432"},
		},
		"refused on windows": {
			cause: "connectex: No connection could be made because the target machine actively refused it",
			host:  "127.0.0.1",
			want:  []string{"connection refused to 127.0.0.1:5432"},
		},
		"unknown host": {
			cause: "dial tcp: lookup pgbox.invalid: no such host",
			host:  "pgbox.invalid",
			want:  []string{`cannot resolve host "pgbox.invalid"`, "--host"},
		},
		"bad password": {
			cause: `FATAL: password authentication failed for user "root" (SQLSTATE 28P01)`,
			host:  "localhost",
			want:  []string{`password authentication failed for database "ny_taxi"`, "--password"},
		},
		"missing database": {
			cause: `FATAL: database "ny_taxi" does not exist (SQLSTATE 3D000)`,
			host:  "localhost",
			want:  []string{`database "ny_taxi" does not exist`, "createdb ny_taxi"},
		},
		"dial timeout": {
			cause: "dial tcp 10.0.0.1:5432: i/o timeout",
			host:  "10.0.0.1",
			want:  []string{"connection timed out to 10.0.0.1:5432"},
		},
		"server without tls": {
			cause: "server refused TLS connection",
			host:  "localhost",
			want:  []string{"SSL/TLS connection error", "--sslmode"},
		},
		"connection limit": {
			cause: "FATAL: sorry, too many clients already; too many connections for role",
			host:  "localhost",
			want:  []string{`too many connections to database "ny_taxi"`},
		},
		"anything else": {
			cause: "unexpected EOF",
			host:  "localhost",
			want:  []string{"failed to connect to database", "unexpected EOF"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cause := errors.New(tt.cause)
			err := wrapConnectionError(cause, tt.host, 5432, "ny_taxi")

			for _, s := range tt.want {
				assert.Contains(t, err.Error(), s)
			}
			assert.ErrorIs(t, err, cause)
			assert.ErrorIs(t, err, pgingest.ErrConnectionFailed)
			assert.Equal(t, pgingest.ExitConnectionError, pgingest.ExitCodeForError(err))
		})
	}
}

func TestWrapConnectionError_NonDefaultPort(t *testing.T) {
	err := wrapConnectionError(errors.New("CONNECTION REFUSED"), "db.internal", 6543, "warehouse")
	assert.Contains(t, err.Error(), "connection refused to db.internal:6543")
	assert.Contains(t, err.Error(), "-p 6543")
}
