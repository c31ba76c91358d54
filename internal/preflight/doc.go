// Package preflight provides readiness checks for the speakers directory,
// the HuggingFace credential, and the external binaries speakerid runs.
//
// The "speakerid status" command renders RunAll; individual checks are
// exported for callers that only need one.
package preflight
