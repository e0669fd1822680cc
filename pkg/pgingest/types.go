package pgingest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IngestConfig contains all parameters needed for one import.
type IngestConfig struct {
	// Source is a local path, file:// URL or http(s):// URL of a delimited file
	// whose first row is a header.
	Source string

	// TableName is "table" or "schema.table". The table is replaced on every run.
	TableName string

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format)
	ConnectionString string

	// Schema drives both coercion and the CREATE TABLE column list.
	Schema Schema

	// ChunkSize is the number of data rows per batch.
	ChunkSize int

	// Delimiter separates fields; zero means DefaultDelimiter.
	Delimiter rune

	Compression Compression

	// Timeout bounds the whole import; zero means no deadline beyond ctx.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Cloud authentication parameters, used according to AuthMethod.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
	AWSRegion         string
	GoogleInstance    string
}

// Validate checks if the IngestConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.Source == "" {
		errs = append(errs, fmt.Errorf("Source is required: %w", ErrInvalidConfig))
	}

	if c.TableName == "" {
		errs = append(errs, fmt.Errorf("TableName is required: %w", ErrInvalidConfig))
	} else if _, err := ParseTableName(c.TableName); err != nil {
		errs = append(errs, err)
	}

	if c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ChunkSize must be positive, got %d: %w", c.ChunkSize, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Delimiter == '\r' || c.Delimiter == '\n' || c.Delimiter == '"' {
		errs = append(errs, fmt.Errorf("delimiter %q is not allowed: %w", c.Delimiter, ErrInvalidConfig))
	}

	if _, err := ParseCompression(string(c.Compression)); err != nil {
		errs = append(errs, err)
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %v: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	if err := c.Schema.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SourceConfig derives the reader settings from c, applying defaults.
func (c *IngestConfig) SourceConfig() SourceConfig {
	delim := c.Delimiter
	if delim == 0 {
		delim = DefaultDelimiter
	}
	comp := c.Compression
	if comp == "" {
		comp = CompressionAuto
	}
	return SourceConfig{
		Location:    c.Source,
		Schema:      c.Schema,
		ChunkSize:   c.ChunkSize,
		Delimiter:   delim,
		Compression: comp,
	}
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID parameters. With all three set, Service Principal
	// authentication is used; otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion overrides the region from the AWS SDK default chain.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM token
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM via the Go connector
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID) token
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod accepts the names used in pgingest.yaml: "standard" (or
// empty), "aws", "google" and "azure".
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	}
	return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
}
