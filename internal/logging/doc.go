// Package logging assembles the slog loggers used across the speakerid
// commands.
//
// Records go to stderr in either a key=value console layout or JSON. When a
// log directory is configured, a second JSON handler receives every record at
// debug level so a failed enrollment or match can be diagnosed after the
// fact. Context helpers tag lines with the run correlation ID and command
// name; WarnWithContext and ErrorWithContext guarantee event_type and
// error_hint fields.
package logging
