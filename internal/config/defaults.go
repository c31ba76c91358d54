package config

const (
	defaultConfigPath        = "~/.config/speakerid/config.toml"
	defaultProjectConfigName = "speakerid.toml"
	defaultSpeakersDir       = "~/.whx/speakers"
	metadataFileName         = "speakers.json"
	defaultEmbeddingModel    = "pyannote/embedding"
	defaultEmbeddingWindow   = "sliding"
	defaultUVXCommand        = "uvx"
	defaultFFprobeCommand    = "ffprobe"
	defaultThreshold         = 0.75
	defaultMinSegmentSeconds = 2.0
	defaultMaxSegments       = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SpeakersDir: defaultSpeakersDir,
		},
		Embedding: Embedding{
			Model:          defaultEmbeddingModel,
			Window:         defaultEmbeddingWindow,
			UVXCommand:     defaultUVXCommand,
			FFprobeCommand: defaultFFprobeCommand,
		},
		Matching: Matching{
			Threshold:         defaultThreshold,
			MinSegmentSeconds: defaultMinSegmentSeconds,
			MaxSegments:       defaultMaxSegments,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
