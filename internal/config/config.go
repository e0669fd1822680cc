package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const ConfigFileName = "pgingest.yaml"

type ConnectionConfig struct {
	Host           string `yaml:"host,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Username       string `yaml:"username,omitempty"`
	Database       string `yaml:"database,omitempty"`
	SSLMode        string `yaml:"sslmode,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type SourceConfig struct {
	URL         string `yaml:"url,omitempty"`
	ChunkSize   int    `yaml:"chunk_size,omitempty"`
	Delimiter   string `yaml:"delimiter,omitempty"`
	Compression string `yaml:"compression,omitempty"`
}

type ColumnConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// SchemaConfig mirrors a dtype map: columns in source order, plus an
// optional parse_dates list that forces the named columns to timestamps.
type SchemaConfig struct {
	Columns          []ColumnConfig `yaml:"columns"`
	ParseDates       []string       `yaml:"parse_dates,omitempty"`
	TimestampLayouts []string       `yaml:"timestamp_layouts,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Table      string           `yaml:"table,omitempty"`
	Source     SourceConfig     `yaml:"source,omitempty"`
	Schema     *SchemaConfig    `yaml:"schema,omitempty"`
	Timeout    string           `yaml:"timeout,omitempty"`
}

// Load reads pgingest.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := decodeFile(filepath.Join(dir, ConfigFileName), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSchema reads a standalone schema file.
func LoadSchema(path string) (*SchemaConfig, error) {
	var sc SchemaConfig
	if err := decodeFile(path, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Write stores cfg as pgingest.yaml in dir. An existing file is never replaced.
func Write(dir string, cfg *ProjectConfig) (string, error) {
	path := filepath.Join(dir, ConfigFileName)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", ConfigFileName, err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return "", err
	}
	return path, f.Close()
}

// decodeFile rejects unknown keys so typos in column lists surface early.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
