// package formatter renders audio features and playlists as plain text, JSON or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/desertthunder/soundbits/internal/models"
	"github.com/desertthunder/soundbits/internal/shared"
)

// Format is an output format accepted by the CLI.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name, defaulting to text when empty.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json or csv)", shared.ErrInvalidArgument, name)
	}
}

// FeaturesToText renders one "name: value" line per feature.
func FeaturesToText(path string, f models.AudioFeatures) []byte {
	var buf bytes.Buffer
	if path != "" {
		buf.WriteString(fmt.Sprintf("File: %s\n", path))
	}
	for _, kv := range f.Fields() {
		buf.WriteString(fmt.Sprintf("%s: %s\n", kv[0], kv[1]))
	}
	return buf.Bytes()
}

// FeaturesToCSV renders a header row and one record with columns: file, bpm, key, scale, danceability, energy, loudness
func FeaturesToCSV(path string, f models.AudioFeatures) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	fields := f.Fields()
	headers := []string{"file"}
	record := []string{path}
	for _, kv := range fields {
		headers = append(headers, kv[0])
		record = append(record, kv[1])
	}

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.Write(record); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

type featuresDocument struct {
	File string `json:"file"`
	models.AudioFeatures
}

// FeaturesToJSON renders the features with the analyzed file path.
func FeaturesToJSON(path string, f models.AudioFeatures) ([]byte, error) {
	return shared.MarshalJSON(featuresDocument{File: path, AudioFeatures: f}, true)
}

// FormatFeatures renders f in the given format.
func FormatFeatures(format Format, path string, f models.AudioFeatures) ([]byte, error) {
	switch format {
	case FormatJSON:
		return FeaturesToJSON(path, f)
	case FormatCSV:
		return FeaturesToCSV(path, f)
	default:
		return FeaturesToText(path, f), nil
	}
}

// ProbeToText renders a native MP3 probe summary.
func ProbeToText(p models.Probe) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Duration: %.2f seconds\n", p.Duration.Seconds()))
	buf.WriteString(fmt.Sprintf("Sample rate: %d Hz\n", p.SampleRate))
	buf.WriteString(fmt.Sprintf("Average energy (RMS): %.4f\n", p.RMSEnergy))
	return buf.Bytes()
}

// PlaylistToText renders the name and id of a created playlist.
func PlaylistToText(p *models.Playlist, trackCount int) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Created playlist: %s\n", p.Name))
	buf.WriteString(fmt.Sprintf("ID: %s\n", p.ID))
	if p.URI != "" {
		buf.WriteString(fmt.Sprintf("URI: %s\n", p.URI))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n", trackCount))
	buf.WriteString(fmt.Sprintf("Visibility: %s\n", VisibilityString(p.Public)))
	return buf.Bytes()
}

// PlaylistToJSON renders the playlist metadata.
func PlaylistToJSON(p *models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(p, true)
}

// VisibilityString returns "Public" or "Private".
func VisibilityString(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
