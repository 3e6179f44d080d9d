package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundbits/internal/shared"
	tu "github.com/desertthunder/soundbits/internal/testing"
	"github.com/urfave/cli/v3"
)

// runApp runs the root command with args and returns its output.
func runApp(t *testing.T, r *Runner, args ...string) (string, error) {
	t.Helper()
	output := &bytes.Buffer{}
	r.output = output
	err := r.app().Run(t.Context(), append([]string{"soundbits"}, args...))
	return output.String(), err
}

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := quietLogger()
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			engine := &tu.StubEngine{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Engine:     engine,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.loaded {
				t.Error("expected provided config to count as loaded")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.engine != engine {
				t.Error("expected engine to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.loaded {
				t.Error("expected config to be loaded lazily")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if runner.newCreator == nil {
				t.Error("expected default creator factory")
			}
		})

		t.Run("defaults to the essentia engine", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig(), Logger: quietLogger()})

			if runner.extractorEngine() == nil {
				t.Error("expected engine to be built from config")
			}
		})
	})

	t.Run("prepare", func(t *testing.T) {
		t.Run("loads config file and log level flag", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")
			tu.MustWriteFile(t, path, "[playlist]\nname = \"From File\"\n[log]\nlevel = \"warn\"\n")

			logger := quietLogger()
			runner := NewRunner(RunnerOpts{Logger: logger, Interactive: true})

			cmd := &cli.Command{
				Flags: globalFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runner.prepare(cmd)
				},
			}
			if err := cmd.Run(t.Context(), []string{"soundbits", "--config", path, "--log-level", "debug", "--quiet"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.config.Playlist.Name != "From File" {
				t.Errorf("expected config from file, got %q", runner.config.Playlist.Name)
			}
			if runner.config.Extractor.FrameSize != 2048 {
				t.Errorf("expected defaults for missing keys, got %d", runner.config.Extractor.FrameSize)
			}
			if runner.logger.GetLevel() != log.DebugLevel {
				t.Errorf("expected flag to override log level, got %v", runner.logger.GetLevel())
			}
			if runner.interactive {
				t.Error("expected --quiet to disable the spinner")
			}
		})

		t.Run("invalid config fails", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			tu.MustWriteFile(t, path, "not = [valid")

			runner := NewRunner(RunnerOpts{Logger: quietLogger()})
			_, err := runApp(t, runner, "--config", path, "analyze", "song.mp3")
			if err == nil {
				t.Error("expected invalid config to fail")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("returns error on write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err == nil {
				t.Error("expected error for failing writer")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s\n", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world\n" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}
	})
}
