package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"speakerid/internal/logging"
	"speakerid/internal/services"
)

// Pyannote runtime constants.
const (
	DefaultModel   = "pyannote/embedding"
	DefaultWindow  = "sliding"
	UVXCommand     = "uvx"
	CUDAIndexURL   = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL   = "https://pypi.org/simple"
	licenseURL     = "https://huggingface.co/pyannote/embedding"
	scriptFileName = "speaker_embed.py"
)

// DefaultHint is the remediation shown for any provider failure.
const DefaultHint = "Make sure you have:\n" +
	"1. Accepted the pyannote/embedding license at " + licenseURL + "\n" +
	"2. Set HF_TOKEN with read access to the model"

// PyannoteConfig captures runtime settings for the pyannote helper.
type PyannoteConfig struct {
	Model       string
	HFToken     string
	CUDAEnabled bool
	Window      string
	UVXCommand  string
	// WorkDir hosts the temporary script and segment files. Empty uses the
	// system temp directory.
	WorkDir string
}

// CommandRunner executes name with args and extra environment, returning the
// captured stdout and stderr.
type CommandRunner func(ctx context.Context, name string, args, env []string) (stdout, stderr []byte, err error)

// Pyannote embeds audio with pyannote.audio running under uvx.
type Pyannote struct {
	cfg           PyannoteConfig
	logger        *slog.Logger
	commandRunner CommandRunner
}

var _ BatchProvider = (*Pyannote)(nil)

// NewPyannote creates a provider with the given configuration.
func NewPyannote(cfg PyannoteConfig, logger *slog.Logger) *Pyannote {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.Window) == "" {
		cfg.Window = DefaultWindow
	}
	if strings.TrimSpace(cfg.UVXCommand) == "" {
		cfg.UVXCommand = UVXCommand
	}
	return &Pyannote{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "embedding"),
		commandRunner: runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Pyannote) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		p.commandRunner = runner
	}
}

// Model returns the configured model identifier.
func (p *Pyannote) Model() string {
	return p.cfg.Model
}

// Embed embeds the whole file, or the clip's range when set.
func (p *Pyannote) Embed(ctx context.Context, clip Clip) (Frames, error) {
	var ranges []TimeRange
	if clip.Range != nil {
		ranges = []TimeRange{*clip.Range}
	}
	outcomes, err := p.run(ctx, clip.AudioPath, ranges)
	if err != nil {
		return nil, err
	}
	if outcomes[0].Err != nil {
		return nil, &services.ExtractionError{Hint: DefaultHint, Err: outcomes[0].Err}
	}
	return outcomes[0].Frames, nil
}

// EmbedBatch embeds every range of audioPath with one model load.
func (p *Pyannote) EmbedBatch(ctx context.Context, audioPath string, ranges []TimeRange) ([]Outcome, error) {
	if len(ranges) == 0 {
		return nil, nil
	}
	return p.run(ctx, audioPath, ranges)
}

type scriptResult struct {
	Frames Frames `json:"frames"`
	Error  string `json:"error,omitempty"`
}

type scriptOutput struct {
	Model   string         `json:"model"`
	Results []scriptResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

func (p *Pyannote) run(ctx context.Context, audioPath string, ranges []TimeRange) ([]Outcome, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "embedding", "run", "audio path required", nil)
	}

	workDir, err := os.MkdirTemp(p.cfg.WorkDir, "speakerid-embed-*")
	if err != nil {
		return nil, fmt.Errorf("embedding: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	scriptPath := filepath.Join(workDir, scriptFileName)
	if err := os.WriteFile(scriptPath, []byte(pyannoteScript), 0o644); err != nil {
		return nil, fmt.Errorf("embedding: write script: %w", err)
	}

	segmentsPath := ""
	if len(ranges) > 0 {
		segmentsPath = filepath.Join(workDir, "segments.json")
		data, err := json.Marshal(ranges)
		if err != nil {
			return nil, fmt.Errorf("embedding: encode segments: %w", err)
		}
		if err := os.WriteFile(segmentsPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("embedding: write segments: %w", err)
		}
	}

	args := p.buildArgs(scriptPath, audioPath, segmentsPath)
	env := []string{"HF_TOKEN=" + strings.TrimSpace(p.cfg.HFToken)}
	// Torch 2.6 changed torch.load default to weights_only=true, breaking pyannote checkpoints.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	p.logger.Debug("running pyannote embedding helper",
		logging.String("audio", audioPath),
		logging.Int("segments", len(ranges)),
		logging.String("model", p.cfg.Model),
	)

	stdout, stderr, err := p.commandRunner(ctx, p.cfg.UVXCommand, args, env)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &services.ExtractionError{Hint: DefaultHint, Err: summarizeFailure(err, stderr)}
	}

	var out scriptOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, &services.ExtractionError{
			Hint: DefaultHint,
			Err:  services.Wrap(services.ErrExternalTool, "embedding", "parse", "decode helper output", err),
		}
	}
	if out.Error != "" {
		return nil, &services.ExtractionError{Hint: DefaultHint, Err: errors.New(out.Error)}
	}

	want := len(ranges)
	if want == 0 {
		want = 1
	}
	if len(out.Results) != want {
		return nil, &services.ExtractionError{
			Hint: DefaultHint,
			Err:  fmt.Errorf("helper returned %d results for %d clips", len(out.Results), want),
		}
	}

	outcomes := make([]Outcome, len(out.Results))
	for i, res := range out.Results {
		switch {
		case res.Error != "":
			outcomes[i].Err = errors.New(res.Error)
		case len(res.Frames) == 0:
			outcomes[i].Err = ErrEmptyEmbedding
		default:
			outcomes[i].Frames = res.Frames
		}
	}
	return outcomes, nil
}

func (p *Pyannote) buildArgs(scriptPath, audioPath, segmentsPath string) []string {
	// torchaudio + soundfile are the audio decoder fallback (torchcodec often fails).
	args := []string{
		"--quiet",
		"--with", "pyannote.audio",
		"--with", "numpy",
		"--with", "torchaudio",
		"--with", "soundfile",
		"--with", "omegaconf",
	}
	if p.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	}
	args = append(args, "python", scriptPath,
		"--audio", audioPath,
		"--model", p.cfg.Model,
		"--window", p.cfg.Window,
	)
	if segmentsPath != "" {
		args = append(args, "--segments", segmentsPath)
	}
	if p.cfg.CUDAEnabled {
		args = append(args, "--device", "cuda")
	}
	return args
}

// summarizeFailure turns helper stderr into a one-line cause, recognising
// HuggingFace gated-model errors.
func summarizeFailure(err error, stderr []byte) error {
	var payload scriptOutput
	if json.Unmarshal(bytes.TrimSpace(lastLine(stderr)), &payload) == nil && payload.Error != "" {
		if isGatedError(payload.Error) {
			return fmt.Errorf("HuggingFace model access denied: %s", payload.Error)
		}
		return errors.New(payload.Error)
	}
	text := strings.TrimSpace(string(stderr))
	if isGatedError(text) {
		return fmt.Errorf("HuggingFace model access denied. Visit %s to accept the model terms, then retry", licenseURL)
	}
	msg := text
	if idx := strings.LastIndex(msg, "Error:"); idx != -1 {
		msg = strings.TrimSpace(msg[idx:])
	} else if line := strings.TrimSpace(string(lastLine(stderr))); line != "" {
		msg = line
	}
	if msg == "" {
		return services.Wrap(services.ErrExternalTool, "embedding", "uvx", "", err)
	}
	return services.Wrap(services.ErrExternalTool, "embedding", "uvx", msg, err)
}

func isGatedError(text string) bool {
	return strings.Contains(text, "GatedRepoError") || strings.Contains(text, "401")
}

func lastLine(data []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if line := bytes.TrimSpace(lines[i]); len(line) > 0 {
			return line
		}
	}
	return nil
}

func runCommand(ctx context.Context, name string, args, env []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), env...)
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
