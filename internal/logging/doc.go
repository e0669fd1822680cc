// Package logging implements pgingest.Logger.
//
// ConsoleLogger writes status lines to stderr (or any io.Writer), keeping
// stdout free for machine-readable output. NullLogger discards everything.
package logging
