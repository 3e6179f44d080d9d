package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundbits/internal/analysis"
	"github.com/desertthunder/soundbits/internal/services"
	"github.com/desertthunder/soundbits/internal/shared"
	"github.com/desertthunder/soundbits/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// CreatorFactory builds a [services.PlaylistCreator] once the credential and playlist settings are known.
type CreatorFactory func(opts services.Options) (services.PlaylistCreator, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	loaded      bool
	logger      *log.Logger
	output      io.Writer
	httpClient  *http.Client
	newCreator  CreatorFactory
	engine      analysis.Engine
	interactive bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	// Config skips loading config.toml when set.
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	// NewCreator defaults to [services.NewPlaylistCreator].
	NewCreator CreatorFactory
	// Engine defaults to an [analysis.EssentiaEngine] built from the extractor config.
	Engine analysis.Engine
	// Interactive enables the spinner.
	Interactive bool
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.NewCreator == nil {
		opts.NewCreator = services.NewPlaylistCreator
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		loaded:      loaded,
		logger:      opts.Logger,
		output:      opts.Output,
		httpClient:  opts.HTTPClient,
		newCreator:  opts.NewCreator,
		engine:      opts.Engine,
		interactive: opts.Interactive,
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// prepare applies global flags: loads .env and the config file once, then sets log level and destination.
func (r *Runner) prepare(cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" && r.configPath == "" {
		r.configPath = path
	}
	if r.configPath == "" {
		r.configPath = "config.toml"
	}

	if !r.loaded {
		if err := shared.LoadDotEnv(".env"); err != nil {
			r.logger.Warn("failed to load .env", "error", err)
		}
		config, err := shared.Resolve(r.configPath)
		if err != nil {
			return err
		}
		r.config = config
		r.loaded = true

		if r.config.Log.File != "" {
			fileLogger, err := shared.NewFileLogger(r.config.Log.File)
			if err != nil {
				return fmt.Errorf("failed to create file logger: %w", err)
			}
			r.SetLogger(fileLogger)
		}
	}

	level := r.config.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		level = flag
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if cmd.Bool("quiet") {
		r.interactive = false
	}
	return nil
}

// spin runs task behind a spinner when interactive, or directly otherwise.
func (r *Runner) spin(ctx context.Context, title string, task ui.Task) error {
	if !r.interactive {
		return task(ctx)
	}
	return ui.Run(ctx, os.Stderr, title, task)
}

func (r *Runner) extractorEngine() analysis.Engine {
	if r.engine == nil {
		r.engine = analysis.NewEssentiaEngine(r.config.Extractor, r.logger)
	}
	return r.engine
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
