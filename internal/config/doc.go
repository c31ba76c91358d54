// Package config loads, normalizes, and validates speakerid configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN. The Config type centralizes the knobs the enrollment, matching,
// and profile management commands need so the speaker store location and
// embedding provider credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
