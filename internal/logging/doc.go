// Package logging builds the slog loggers used across lorry. Console output
// is the default; JSON output and additional file sinks are selected through
// configuration.
package logging
