package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vvka-141/pgingest/internal/db"
	"github.com/vvka-141/pgingest/pkg/pgingest"
)

// ConnectorFactory builds a Connector for a resolved connection config.
// db.NewConnector is the production implementation.
type ConnectorFactory func(*pgingest.ConnectionConfig, pgingest.Logger) (pgingest.Connector, error)

type sinkOpenFunc func(ctx context.Context, connConfig *pgingest.ConnectionConfig) (pgingest.DBConnection, func(), error)

// IngestService implements the Ingester interface.
// Thread-Safety: NOT safe for concurrent Ingest() calls on the same instance.
type IngestService struct {
	connectorFactory ConnectorFactory
	source           pgingest.BatchSource
	tables           pgingest.TableManager
	logger           pgingest.Logger
	observer         pgingest.ProgressObserver
	openSink         sinkOpenFunc
}

// NewIngestService creates a new IngestService with all dependencies injected.
//
// Nil dependencies are programmer errors and panic at construction time.
// Everything that can go wrong at run time comes back as an error or a
// Report.
func NewIngestService(
	connectorFactory ConnectorFactory,
	source pgingest.BatchSource,
	tables pgingest.TableManager,
	logger pgingest.Logger,
) *IngestService {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if source == nil {
		panic("source cannot be nil")
	}
	if tables == nil {
		panic("tables cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	svc := &IngestService{
		connectorFactory: connectorFactory,
		source:           source,
		tables:           tables,
		logger:           logger,
		observer:         NopObserver{},
	}
	svc.openSink = svc.defaultOpenSink
	return svc
}

// WithObserver returns the service with progress events routed to observer.
func (s *IngestService) WithObserver(observer pgingest.ProgressObserver) *IngestService {
	if observer == nil {
		observer = NopObserver{}
	}
	s.observer = observer
	return s
}

func (s *IngestService) defaultOpenSink(ctx context.Context, connConfig *pgingest.ConnectionConfig) (pgingest.DBConnection, func(), error) {
	connector, err := s.connectorFactory(connConfig, s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		s.closeConnector(connector)
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		s.closeConnector(connector)
	}
	return db.NewPoolAdapter(pool), cleanup, nil
}

// closeConnector releases connectors that hold resources beyond the pool,
// such as the Cloud SQL dialer.
func (s *IngestService) closeConnector(connector pgingest.Connector) {
	if closer, ok := connector.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Verbose("Closing connector: %v", err)
		}
	}
}

// Ingest replaces config.TableName with the contents of config.Source.
//
// Errors are returned for failures before any chunk is read: invalid
// configuration, no sink connection, or a source that cannot be opened.
// From the first chunk on, the outcome is carried by the Report.
func (s *IngestService) Ingest(ctx context.Context, config pgingest.IngestConfig) (*pgingest.Report, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	connConfig, err := s.connectionConfig(config)
	if err != nil {
		return nil, err
	}

	s.logger.Verbose("Connecting to %s", db.RedactConnectionString(connConfig))
	conn, release, err := s.openSink(ctx, connConfig)
	if err != nil {
		return nil, err
	}
	defer release()

	report := pgingest.NewReport(config.Source, config.TableName)
	start := time.Now()
	s.observer.Started(config.Source, config.TableName)
	s.logger.Verbose("Run %s: %s -> %s, %d rows per chunk", report.RunID, config.Source, config.TableName, config.ChunkSize)

	reader, err := s.source.Open(ctx, config.SourceConfig())
	switch {
	case errors.Is(err, pgingest.ErrEmptySource):
		report.State = pgingest.StateEmptySource
		return s.finish(report, start), nil
	case err != nil:
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.logger.Verbose("Closing source: %v", err)
		}
	}()

	s.load(ctx, conn, reader, config, report)
	return s.finish(report, start), nil
}

func (s *IngestService) finish(report *pgingest.Report, start time.Time) *pgingest.Report {
	report.Duration = time.Since(start)
	if report.State == pgingest.StateFailed {
		s.logger.Verbose("Run %s failed in %s of chunk %d (from %s): %v",
			report.RunID, report.FailedStep, report.FailedChunk, report.FailedFrom, report.Err)
	}
	s.observer.Finished(report)
	return report
}

// load drives the state machine. It always leaves report in a terminal state.
func (s *IngestService) load(ctx context.Context, conn pgingest.DBConnection, reader pgingest.BatchReader, config pgingest.IngestConfig, report *pgingest.Report) {
	first, err := reader.Next(ctx)
	switch {
	case errors.Is(err, io.EOF):
		report.State = pgingest.StateEmptySource
		return
	case err != nil:
		report.Fail(pgingest.StepRead, 0, err)
		return
	}

	if exists, err := s.tables.Exists(ctx, conn, config.TableName); err != nil {
		s.logger.Verbose("Could not check whether %s exists: %v", config.TableName, err)
	} else if exists {
		s.logger.Verbose("Table %s exists and will be replaced", config.TableName)
	}

	if err := s.tables.DefineSchema(ctx, conn, config.TableName, config.Schema); err != nil {
		report.Fail(pgingest.StepDefineSchema, first.Index, err)
		return
	}
	if err := s.appendBatch(ctx, conn, config.TableName, first, report); err != nil {
		report.Fail(pgingest.StepAppend, first.Index, err)
		return
	}
	report.State = pgingest.StateTableInitialized
	s.observer.TableInitialized(config.TableName, report.RowsWritten)

	for {
		batch, err := reader.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			report.Fail(pgingest.StepRead, report.ChunksWritten, err)
			return
		}

		report.State = pgingest.StateAppending
		if err := s.appendBatch(ctx, conn, config.TableName, batch, report); err != nil {
			report.Fail(pgingest.StepAppend, batch.Index, err)
			return
		}
	}

	report.State = pgingest.StateDone
}

func (s *IngestService) appendBatch(ctx context.Context, conn pgingest.DBConnection, table string, batch *pgingest.Batch, report *pgingest.Report) error {
	n, err := s.tables.AppendBatch(ctx, conn, table, batch)
	if err != nil {
		return err
	}

	report.ChunksWritten++
	report.RowsWritten += n
	s.logger.Verbose("Chunk %d: %d rows (rows %d-%d), %d total", batch.Index, n, batch.FirstRow, batch.FirstRow+n-1, report.RowsWritten)
	s.observer.ChunkAppended(batch.Index, n, report.RowsWritten)
	return nil
}

// connectionConfig parses the connection string and layers the cloud
// authentication settings from config on top.
func (s *IngestService) connectionConfig(config pgingest.IngestConfig) (*pgingest.ConnectionConfig, error) {
	connConfig, err := db.ParseConnectionString(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if connConfig.AppName == "" {
		connConfig.AppName = db.DefaultApplicationName
	}

	connConfig.AuthMethod = config.AuthMethod
	connConfig.AzureTenantID = config.AzureTenantID
	connConfig.AzureClientID = config.AzureClientID
	connConfig.AzureClientSecret = config.AzureClientSecret
	connConfig.AWSRegion = config.AWSRegion
	connConfig.GoogleInstance = config.GoogleInstance

	return connConfig, nil
}

// NopObserver ignores every progress event.
type NopObserver struct{}

func (NopObserver) Started(string, string) {}
func (NopObserver) TableInitialized(string, int64) {}
func (NopObserver) ChunkAppended(int, int64, int64) {}
func (NopObserver) Finished(*pgingest.Report) {}

var _ pgingest.Ingester = (*IngestService)(nil)
