// Package manager owns the DDL and bulk-write side of a load.
//
// A load touches its sink table in two phases:
//   - DefineSchema replaces the table with an empty one shaped by the schema
//   - AppendBatch copies one chunk at a time with the COPY protocol
//
// Table names are validated by pgingest.ParseTableName and every identifier,
// table and column alike, is emitted through pgx.Identifier.Sanitize().
//
// # Example Usage
//
//	mgr := manager.New()
//
//	if err := mgr.DefineSchema(ctx, conn, "yellow_taxi_data", schema); err != nil {
//	    return err
//	}
//	n, err := mgr.AppendBatch(ctx, conn, "yellow_taxi_data", batch)
package manager
