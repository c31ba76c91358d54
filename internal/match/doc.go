// Package match resolves anonymous diarization labels to enrolled speakers.
//
// Each label is reduced to one representative embedding built from its
// longest segments and compared against every profile by cosine similarity.
// Failures are contained per segment and per label; a label that cannot be
// scored maps to itself.
package match
