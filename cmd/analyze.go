package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/soundbits/internal/analysis"
	"github.com/desertthunder/soundbits/internal/formatter"
	"github.com/desertthunder/soundbits/internal/shared"
	"github.com/desertthunder/soundbits/internal/ui"
	"github.com/urfave/cli/v3"
)

// Analyze extracts audio features from one file and prints them.
//
// A missing file prints guidance without invoking the extractor. Analysis failures print an error line
// and do not fail the command.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: audio file path", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}

	if !shared.FileExists(path) {
		r.logger.Debug("input file not found", "path", path)
		r.writePlain("%s %s\n", ui.Warn("File not found:"), path)
		r.writePlain("%s\n", ui.Help("Pass the path to an audio file, e.g. `soundbits analyze ./song.mp3`"))
		return nil
	}

	if cmd.Bool("probe") {
		r.probe(path, format)
	}

	extractor := analysis.NewExtractor(r.extractorEngine(), analysis.OptionsFromConfig(r.config.Extractor), r.logger)

	var result analysis.Result
	if err := r.spin(ctx, "Analyzing "+filepath.Base(path), func(ctx context.Context) error {
		result = extractor.Analyze(ctx, path)
		return nil
	}); err != nil {
		return err
	}

	features, ok := result.Features()
	if !ok {
		return r.writePlain("%s %v\n", ui.Error("Analysis failed:"), result.Err())
	}

	data, err := formatter.FormatFeatures(format, path, features)
	if err != nil {
		return err
	}
	if format == formatter.FormatText {
		r.writePlain("%s\n", ui.Title("Audio features"))
	}
	return r.writeBytes(data)
}

// probe prints the native MP3 summary in text mode and logs it otherwise, so JSON and CSV output stay parseable.
func (r *Runner) probe(path string, format formatter.Format) {
	p, err := analysis.Probe(path)
	if err != nil {
		r.logger.Warn("probe skipped", "path", path, "error", err)
		return
	}
	if format != formatter.FormatText {
		r.logger.Info("probe", "duration", p.Duration, "sample_rate", p.SampleRate, "rms", p.RMSEnergy)
		return
	}
	r.writePlain("%s\n", ui.Title("Probe"))
	r.writeBytes(formatter.ProbeToText(p))
}
