// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/soundbits/internal/analysis"
	"github.com/desertthunder/soundbits/internal/models"
)

// StubEngine is a test double for [analysis.Engine].
//
// It returns Pool and Err as configured, or panics with Panic when set, and counts calls.
type StubEngine struct {
	Pool  analysis.Pool
	Err   error
	Panic any

	mu    sync.Mutex
	calls []string
}

func (s *StubEngine) Extract(ctx context.Context, path string, opts analysis.Options) (analysis.Pool, error) {
	s.mu.Lock()
	s.calls = append(s.calls, path)
	s.mu.Unlock()

	if s.Panic != nil {
		panic(s.Panic)
	}
	return s.Pool, s.Err
}

// Calls returns the paths Extract was called with.
func (s *StubEngine) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// FeaturePool builds a nested pool holding f at the paths the extractor reads.
func FeaturePool(f models.AudioFeatures) analysis.Pool {
	return analysis.Pool{
		"rhythm": map[string]any{
			"bpm":          f.BPM,
			"danceability": f.Danceability,
		},
		"tonal": map[string]any{
			"key_edma": map[string]any{
				"key":   f.Key,
				"scale": f.Scale,
			},
		},
		"lowlevel": map[string]any{
			"spectral_energy": map[string]any{
				"mean":  f.Energy,
				"stdev": 0.01,
			},
			"loudness_ebu128": map[string]any{
				"integrated": f.Loudness,
			},
		},
	}
}

// MockCreator is a test double for [services.PlaylistCreator].
type MockCreator struct {
	Playlist *models.Playlist
	Err      error
	Refs     [][]models.TrackRef
}

func (m *MockCreator) CreatePlaylist(ctx context.Context, refs []models.TrackRef) (*models.Playlist, error) {
	m.Refs = append(m.Refs, refs)
	return m.Playlist, m.Err
}

func (m *MockCreator) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile writes content to path, failing the test on error.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
