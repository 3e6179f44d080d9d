// package models defines the data model shared by the playlist creator and the audio extractor
package models

import (
	"fmt"
	"time"
)

// TrackRef is an opaque catalog URI for a single track, e.g. "spotify:track:4uLU6hMCjMI75M1A2tKUQC".
//
// The format is validated by the remote service, never locally.
type TrackRef = string

// Playlist is a playlist as returned by the remote service when it was created.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URI         string `json:"uri,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
}

// AudioFeatures holds the six descriptors extracted from one audio file.
type AudioFeatures struct {
	BPM          float64 `json:"bpm"`
	Key          string  `json:"key"`
	Scale        string  `json:"scale"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Loudness     float64 `json:"loudness"` // integrated loudness, LUFS
}

// Fields returns the features as ordered name/value pairs for display.
func (a AudioFeatures) Fields() [][2]string {
	return [][2]string{
		{"bpm", fmt.Sprintf("%.2f", a.BPM)},
		{"key", a.Key},
		{"scale", a.Scale},
		{"danceability", fmt.Sprintf("%.4f", a.Danceability)},
		{"energy", fmt.Sprintf("%.4f", a.Energy)},
		{"loudness", fmt.Sprintf("%.2f", a.Loudness)},
	}
}

// Probe is a quick native read of an MP3 file, independent of the analysis engine.
type Probe struct {
	Duration   time.Duration `json:"duration"`
	SampleRate int           `json:"sample_rate"`
	RMSEnergy  float64       `json:"rms_energy"`
}
