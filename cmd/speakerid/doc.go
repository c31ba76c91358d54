// Command speakerid enrolls known speakers from audio samples, resolves
// WhisperX diarization labels against the enrolled profiles, and renders the
// annotated transcript.
//
// Subcommands:
//   - enroll: extract an embedding from one sample and store the profile
//   - match: map SPEAKER_XX labels to enrolled names and write the transcript
//   - speakers list|delete: manage the profile store
//   - status: check the speakers directory, token, and external binaries
//   - config init|validate: configuration scaffolding
package main
