package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/pgingest/internal/config"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// GranularConnFlags holds the per-component connection flags
// (-U, -W, -h, -p, -d, --sslmode).
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no flag that conflicts with --connection was set.
// Database and Password are excluded: both may refine a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags selects and parameterizes IAM authentication.
// The Azure client secret only ever comes from $AZURE_CLIENT_SECRET.
type CloudFlags struct {
	AWS       bool
	AWSRegion string

	Google         bool
	GoogleInstance string

	Azure         bool
	AzureTenantID string
	AzureClientID string
}

func (c *CloudFlags) selected() int {
	n := 0
	for _, on := range []bool{c.AWS, c.Google, c.Azure} {
		if on {
			n++
		}
	}
	return n
}

// EnvVars holds the libpq environment variables plus the cloud ones pgingest reads.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST     string
	PGPORT     string
	PGUSER     string
	PGPASSWORD string
	PGDATABASE string
	PGSSLMODE  string

	DATABASE_URL               string // Heroku/Rails convention
	PGINGEST_CONNECTION_STRING string // wins over DATABASE_URL

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
	AWS_REGION          string
}

func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                     os.Getenv("PGHOST"),
		PGPORT:                     os.Getenv("PGPORT"),
		PGUSER:                     os.Getenv("PGUSER"),
		PGPASSWORD:                 os.Getenv("PGPASSWORD"),
		PGDATABASE:                 os.Getenv("PGDATABASE"),
		PGSSLMODE:                  os.Getenv("PGSSLMODE"),
		DATABASE_URL:               os.Getenv("DATABASE_URL"),
		PGINGEST_CONNECTION_STRING: os.Getenv("PGINGEST_CONNECTION_STRING"),
		AZURE_TENANT_ID:            os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:            os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:        os.Getenv("AZURE_CLIENT_SECRET"),
		AWS_REGION:                 os.Getenv("AWS_REGION"),
	}
}

func (e *EnvVars) connectionString() string {
	if e.PGINGEST_CONNECTION_STRING != "" {
		return e.PGINGEST_CONNECTION_STRING
	}
	return e.DATABASE_URL
}

// ResolveConnectionParams resolves the sink connection with this precedence:
//
//  1. --connection flag, parsed as-is
//  2. $PGINGEST_CONNECTION_STRING or $DATABASE_URL, when no granular flag is set
//  3. granular flags > PG* environment > pgingest.yaml > defaults, per component
//
// In every path -d and -W override the database and password, and
// $PGSSLMODE fills an sslmode the string left out. Cloud authentication is
// layered on last.
//
// Setting --connection together with -h, -p, -U or --sslmode is an error.
func ResolveConnectionParams(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgingest.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@localhost:5432/postgres\"\n"+
				"  2. Granular flags: -h localhost -p 5432 -U myuser -d mydb\n"+
				"  3. Environment variables: export PGHOST=localhost PGPORT=5432 PGUSER=myuser: %w",
			pgingest.ErrInvalidConfig,
		)
	}
	if cloudFlags.selected() > 1 {
		return nil, fmt.Errorf("choose at most one of --aws, --google, --azure: %w", pgingest.ErrInvalidConfig)
	}

	var cfg *pgingest.ConnectionConfig
	var err error

	switch envConn := envVars.connectionString(); {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envConn != "":
		cfg, err = resolveFromConnectionString(envConn, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, projectConfig)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}
	if granularFlags.Password != "" {
		cfg.Password = granularFlags.Password
	}

	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}
	if err := applyCloudAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyCloudAuth picks the auth method: explicit flag, then pgingest.yaml
// auth_method, then Azure when AZURE_TENANT_ID or AZURE_CLIENT_ID is set.
// Parameters follow flag > environment > pgingest.yaml.
func applyCloudAuth(cfg *pgingest.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	method := pgingest.AuthMethodStandard
	switch {
	case flags.AWS:
		method = pgingest.AuthMethodAWSIAM
	case flags.Google:
		method = pgingest.AuthMethodGoogleIAM
	case flags.Azure:
		method = pgingest.AuthMethodAzureEntraID
	case pc.AuthMethod != "":
		m, err := pgingest.ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return err
		}
		method = m
	case env.AZURE_TENANT_ID != "" || env.AZURE_CLIENT_ID != "" || flags.AzureTenantID != "" || flags.AzureClientID != "":
		method = pgingest.AuthMethodAzureEntraID
	}
	cfg.AuthMethod = method

	switch method {
	case pgingest.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case pgingest.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
		if cfg.GoogleInstance == "" {
			return fmt.Errorf("--google requires --google-instance (project:region:instance): %w", pgingest.ErrInvalidConfig)
		}
	case pgingest.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	}
	return nil
}

// resolveFromConnectionString parses connStr and fills sslmode from the
// environment when the string does not set it.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*pgingest.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	cfg.SSLMode = firstNonEmpty(cfg.SSLMode, envVars.PGSSLMODE, "prefer")
	return cfg, nil
}

// resolveFromGranularParams builds the config component by component:
// flag > environment > pgingest.yaml > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*pgingest.ConnectionConfig, error) {
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	cfg := &pgingest.ConnectionConfig{
		Host:             firstNonEmpty(flags.Host, envVars.PGHOST, pc.Host, DefaultHost),
		Username:         firstNonEmpty(flags.Username, envVars.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME")),
		Password:         envVars.PGPASSWORD,
		Database:         firstNonEmpty(flags.Database, envVars.PGDATABASE, pc.Database, DefaultDatabase),
		SSLMode:          firstNonEmpty(flags.SSLMode, envVars.PGSSLMODE, pc.SSLMode, "prefer"),
		AuthMethod:       pgingest.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case envVars.PGPORT != "":
		port, err := strconv.Atoi(envVars.PGPORT)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer between 1 and 65535: %w", envVars.PGPORT, pgingest.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = DefaultPort
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
