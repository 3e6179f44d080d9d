package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundbits/internal/shared"
)

// DefaultEssentiaBinary is the extractor looked up on PATH when no binary is configured.
const DefaultEssentiaBinary = "essentia_streaming_extractor_music"

// EssentiaEngine runs Essentia's streaming music extractor as a subprocess.
//
// Each call writes a profile into a fresh temporary directory, runs
// `<binary> <input> <output.json> <profile>` and decodes the JSON output.
type EssentiaEngine struct {
	Binary  string   // path or name of the extractor executable
	TempDir string   // parent for per-call work directories; empty uses [os.TempDir]
	Env     []string // extra KEY=VALUE pairs appended to the process environment
	logger  *log.Logger
}

// NewEssentiaEngine creates an engine from the extractor section of the config.
func NewEssentiaEngine(c shared.ExtractorConfig, logger *log.Logger) *EssentiaEngine {
	binary := c.Binary
	if binary == "" {
		binary = DefaultEssentiaBinary
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &EssentiaEngine{Binary: binary, TempDir: c.TempDir, logger: logger}
}

// profile is the extractor configuration. JSON is a subset of YAML, which the extractor reads.
type profile struct {
	OutputFormat string          `json:"outputFormat"`
	OutputFrames int             `json:"outputFrames"`
	LowLevel     profileLowLevel `json:"lowlevel"`
}

type profileLowLevel struct {
	FrameSize    int      `json:"frameSize"`
	HopSize      int      `json:"hopSize"`
	SilentFrames string   `json:"silentFrames"`
	Stats        []string `json:"stats"`
}

// WriteProfile writes the extractor profile for opts to w.
func WriteProfile(w io.Writer, opts Options) error {
	p := profile{
		OutputFormat: "json",
		LowLevel: profileLowLevel{
			FrameSize:    opts.FrameSize,
			HopSize:      opts.HopSize,
			SilentFrames: opts.SilentFrames,
			Stats:        opts.Stats,
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return nil
}

// Extract implements [Engine].
func (e *EssentiaEngine) Extract(ctx context.Context, path string, opts Options) (Pool, error) {
	dir, err := os.MkdirTemp(e.TempDir, "soundbits-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	profilePath := filepath.Join(dir, "profile.yaml")
	outputPath := filepath.Join(dir, "features.json")

	var buf bytes.Buffer
	if err := WriteProfile(&buf, opts); err != nil {
		return nil, err
	}
	if err := os.WriteFile(profilePath, buf.Bytes(), 0600); err != nil {
		return nil, fmt.Errorf("failed to write profile: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.Binary, path, outputPath, profilePath)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("running extractor", "binary", e.Binary, "input", path)
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found, install Essentia or set %s", shared.ErrFileNotFound, e.Binary, shared.EnvExtractor)
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(e.Binary), err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read extractor output: %w", err)
	}
	return DecodePool(data)
}

// DecodePool parses extractor JSON output.
func DecodePool(data []byte) (Pool, error) {
	var pool Pool
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to decode extractor output: %w", err)
	}
	if pool == nil {
		return nil, errors.New("extractor output is empty")
	}
	return pool, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
