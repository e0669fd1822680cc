// Package schema builds field schemas and coerces raw CSV text into typed
// values.
//
// TaxiTrips is the built-in schema for NYC yellow-taxi trip records. Other
// layouts come from YAML via FromConfig. A Projection maps a source header
// onto a schema once, then converts each record with Projection.Row.
package schema
