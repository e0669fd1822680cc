// Package source opens delimited files from local disk or HTTP(S) and reads
// them as coerced record batches.
//
// Compression is chosen from the file extension (.gz, .zst, .zstd) unless
// set explicitly. Only one chunk of rows is held in memory at a time.
package source
