// Package services defines shared plumbing consumed by the enrollment,
// matching, and profile management commands.
//
// Key responsibilities:
//   - Context helpers that stamp the run correlation identifier and the
//     active command name for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (missing input, extraction, probe) with errors.Is.
//   - ExtractionError, which carries user-facing remediation hints for
//     embedding provider failures.
//
// Use these helpers when wiring new command logic so diagnostics and exit
// behaviour stay uniform across the CLI.
package services
