// Package profile persists enrolled speaker fingerprints.
//
// A store directory holds one NumPy vector file per speaker (<id>.npy) and a
// shared JSON metadata record (speakers.json) keyed by the same ID. Store
// mutations hold an advisory lock on speakers.json.lock and replace files
// atomically, so readers never observe a half-written record.
//
// Metadata entries without a matching vector file are stale: Load and List
// skip them and Delete does not touch them.
package profile
