// package services defines interface PlaylistCreator for building playlists on a remote catalog
//
// Spotify
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/soundbits/internal/models"
	"github.com/desertthunder/soundbits/internal/shared"
)

// PlaylistCreator creates a playlist for the authenticated user and fills it with tracks.
type PlaylistCreator interface {
	// CreatePlaylist creates a new playlist and attaches refs in the given order.
	// Each call creates a new remote playlist.
	CreatePlaylist(ctx context.Context, refs []models.TrackRef) (*models.Playlist, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// NewPlaylistCreator returns the Spotify [PlaylistCreator] configured by opts.
func NewPlaylistCreator(opts Options) (PlaylistCreator, error) {
	return NewSpotifyService(opts)
}

// Step identifies which remote call of playlist creation failed.
type Step string

const (
	StepIdentity Step = "identity"
	StepCreate   Step = "create"
	StepAttach   Step = "attach"
	StepRollback Step = "rollback"
)

// StepError reports a failed remote call.
//
// It matches [shared.ErrAPIRequest] with [errors.Is], and also [shared.ErrTokenExpired] when the API answered 401.
type StepError struct {
	Step    Step
	Status  int    // HTTP status, 0 when no response was received
	Message string // error message from the response body, if any
	Err     error  // underlying transport or decoding error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("%v: %s step", shared.ErrAPIRequest, e.Step)
	if e.Status != 0 {
		msg += fmt.Sprintf(" returned %d %s", e.Status, http.StatusText(e.Status))
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StepError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.Status == http.StatusUnauthorized {
		errs = append(errs, shared.ErrTokenExpired)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// FailedStep returns the step of the first [*StepError] in err's tree, or "" if there is none.
func FailedStep(err error) Step {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step
	}
	return ""
}
