package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundbits/internal/models"
	"github.com/desertthunder/soundbits/internal/shared"
)

// Pool paths read by [Extractor.Analyze].
const (
	PathBPM          = "rhythm.bpm"
	PathKey          = "tonal.key_edma.key"
	PathScale        = "tonal.key_edma.scale"
	PathDanceability = "rhythm.danceability"
	PathEnergy       = "lowlevel.spectral_energy.mean"
	PathLoudness     = "lowlevel.loudness_ebu128.integrated"
)

// Options are the analysis parameters passed to the engine.
type Options struct {
	SilentFrames string   // "drop", "keep" or "noise"
	FrameSize    int      // samples per analysis frame
	HopSize      int      // samples between frames
	Stats        []string // aggregate statistics computed per descriptor
}

// DefaultOptions drops silent frames, uses 2048/1024 framing and computes mean and stdev.
func DefaultOptions() Options {
	return Options{
		SilentFrames: "drop",
		FrameSize:    2048,
		HopSize:      1024,
		Stats:        []string{"mean", "stdev"},
	}
}

// OptionsFromConfig overlays non-zero extractor settings on [DefaultOptions].
func OptionsFromConfig(c shared.ExtractorConfig) Options {
	opts := DefaultOptions()
	if c.SilentFrames != "" {
		opts.SilentFrames = c.SilentFrames
	}
	if c.FrameSize > 0 {
		opts.FrameSize = c.FrameSize
	}
	if c.HopSize > 0 {
		opts.HopSize = c.HopSize
	}
	if len(c.Stats) > 0 {
		opts.Stats = c.Stats
	}
	return opts
}

// Engine computes the descriptor pool for one audio file.
type Engine interface {
	Extract(ctx context.Context, path string, opts Options) (Pool, error)
}

// Pool is the nested descriptor tree produced by an [Engine].
type Pool map[string]any

// Lookup resolves a dotted path such as "tonal.key_edma.key".
func (p Pool) Lookup(path string) (any, bool) {
	var node any = map[string]any(p)
	for _, part := range strings.Split(path, ".") {
		var m map[string]any
		switch v := node.(type) {
		case map[string]any:
			m = v
		case Pool:
			m = v
		default:
			return nil, false
		}

		next, ok := m[part]
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Float returns the number at path.
func (p Pool) Float(path string) (float64, error) {
	v, ok := p.Lookup(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", shared.ErrFeatureUnavailable, path)
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", shared.ErrFeatureUnavailable, path, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, not a number", shared.ErrFeatureUnavailable, path, v)
	}
}

// String returns the string at path.
func (p Pool) String(path string) (string, error) {
	v, ok := p.Lookup(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrFeatureUnavailable, path)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, not a string", shared.ErrFeatureUnavailable, path, v)
	}
	return s, nil
}

// Features reads the six descriptors from the pool.
func (p Pool) Features() (models.AudioFeatures, error) {
	var (
		f   models.AudioFeatures
		err error
	)
	if f.BPM, err = p.Float(PathBPM); err != nil {
		return f, err
	}
	if f.Key, err = p.String(PathKey); err != nil {
		return f, err
	}
	if f.Scale, err = p.String(PathScale); err != nil {
		return f, err
	}
	if f.Danceability, err = p.Float(PathDanceability); err != nil {
		return f, err
	}
	if f.Energy, err = p.Float(PathEnergy); err != nil {
		return f, err
	}
	if f.Loudness, err = p.Float(PathLoudness); err != nil {
		return f, err
	}
	return f, nil
}

// Result is the outcome of analyzing one file.
//
// The zero Result reports no features.
type Result struct {
	Path     string
	features models.AudioFeatures
	ok       bool
	err      error
}

// Features returns the extracted features; ok is false when analysis failed.
func (r Result) Features() (models.AudioFeatures, bool) {
	if !r.ok {
		return models.AudioFeatures{}, false
	}
	return r.features, true
}

// Err returns why analysis failed, or nil.
func (r Result) Err() error {
	return r.err
}

// Extractor turns engine pools into [models.AudioFeatures].
type Extractor struct {
	engine Engine
	opts   Options
	logger *log.Logger
}

// NewExtractor creates an Extractor. A nil logger discards output.
func NewExtractor(engine Engine, opts Options, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Extractor{engine: engine, opts: opts, logger: logger}
}

// Analyze runs the engine on path and reads the six descriptors from its pool.
//
// Failures of any kind, including engine panics, are logged and reported through the returned [Result].
func (e *Extractor) Analyze(ctx context.Context, path string) (res Result) {
	res.Path = path
	logger := shared.WithLogger(e.logger, "path", path)

	defer func() {
		if r := recover(); r != nil {
			res = Result{Path: path, err: fmt.Errorf("%w: engine panicked: %v", shared.ErrAnalysisFailed, r)}
			logger.Error("analysis failed", "error", res.err)
		}
	}()

	if e.engine == nil {
		res.err = fmt.Errorf("%w: no engine configured", shared.ErrAnalysisFailed)
		logger.Error("analysis failed", "error", res.err)
		return res
	}

	pool, err := e.engine.Extract(ctx, path, e.opts)
	if err != nil {
		res.err = fmt.Errorf("%w: %w", shared.ErrAnalysisFailed, err)
		logger.Error("analysis failed", "error", err)
		return res
	}

	features, err := pool.Features()
	if err != nil {
		res.err = err
		logger.Error("analysis incomplete", "error", err)
		return res
	}

	logger.Debug("analysis complete", "bpm", features.BPM, "key", features.Key, "scale", features.Scale)
	res.features = features
	res.ok = true
	return res
}
