// Package embedding abstracts speaker-embedding extraction behind a narrow
// Provider interface and hosts the vector math shared by enrollment and
// matching.
//
// Key pieces:
//   - Provider / BatchProvider: embed a whole audio file or time ranges of it.
//   - Frames and Flatten: providers may return one vector or a time-ordered
//     sequence of per-frame vectors; Flatten always reduces to one vector by
//     averaging over the time axis.
//   - Cosine: normalized dot product used for profile matching.
//   - Pyannote: the production provider, which runs an embedded pyannote.audio
//     helper through uvx and decodes its JSON output.
//
// Tests substitute deterministic stub providers so matching logic never
// depends on the neural model.
package embedding
