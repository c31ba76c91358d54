// Package deps checks that the external binaries used for embedding and
// probing are installed.
package deps
