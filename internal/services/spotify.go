// Spotify API implementation of [PlaylistCreator]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/soundbits/internal/models"
	"github.com/desertthunder/soundbits/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	defaultPlaylistName        = "soundbits mix"
	defaultPlaylistDescription = "Created with soundbits"
)

// SpotifyUser represents the subset of a Spotify user profile used to own new playlists.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URI         string `json:"uri"`
}

// Owner is the owner block of a playlist object.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a Spotify playlist object as returned by the create endpoint.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       Owner  `json:"owner"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// spotifyError is the error envelope returned by the Web API.
type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Options configures a [SpotifyService].
type Options struct {
	BaseURL     string // defaults to https://api.spotify.com/v1
	Token       string // bearer credential, required
	Name        string // name for created playlists
	Description string // description for created playlists
	Public      bool

	// RollbackOnFailure unfollows (deletes) a freshly created playlist when attaching tracks fails.
	RollbackOnFailure bool
	// RequestsPerSecond paces outbound requests; 0 disables pacing.
	RequestsPerSecond float64

	HTTPClient *http.Client // base client; its Transport is wrapped with the bearer token
	Logger     *log.Logger
}

// SpotifyService implements [PlaylistCreator] against the Spotify Web API.
//
// The bearer credential is bound to the instance at construction and attached to every request by an [oauth2.Transport].
// It is never validated, refreshed or rotated.
type SpotifyService struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	name        string
	description string
	public      bool
	rollback    bool
	logger      *log.Logger
}

// NewSpotifyService creates a Spotify client bound to the credential in opts.
func NewSpotifyService(opts Options) (*SpotifyService, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("%w: spotify access token is required", shared.ErrMissingCredentials)
	}

	base := opts.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   transport,
		},
		Timeout: base.Timeout,
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	name := opts.Name
	if name == "" {
		name = defaultPlaylistName
	}
	description := opts.Description
	if description == "" {
		description = defaultPlaylistDescription
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &SpotifyService{
		baseURL:     baseURL,
		httpClient:  httpClient,
		limiter:     limiter,
		name:        name,
		description: description,
		public:      opts.Public,
		rollback:    opts.RollbackOnFailure,
		logger:      logger,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// CreatePlaylist resolves the current user, creates a playlist owned by them and attaches refs in order.
//
// The three calls are issued strictly in sequence with no retries. Every failure is a [*StepError].
// When attaching fails and rollback is disabled the created playlist is returned along with the error,
// since it now exists remotely without tracks.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, refs []models.TrackRef) (*models.Playlist, error) {
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: at least one track reference is required", shared.ErrInvalidInput)
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resolved current user", "user", user.ID)

	sp, err := s.NewPlaylist(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	playlist := toPlaylist(sp)
	s.logger.Debug("created playlist", "id", playlist.ID, "name", playlist.Name)

	if err := s.AddTracks(ctx, playlist.ID, refs); err != nil {
		if !s.rollback {
			s.logger.Warn("playlist left without tracks", "id", playlist.ID)
			return playlist, err
		}

		if rbErr := s.Unfollow(ctx, playlist.ID); rbErr != nil {
			s.logger.Error("rollback failed", "id", playlist.ID, "error", rbErr)
			return playlist, errors.Join(err, rbErr)
		}
		s.logger.Info("rolled back playlist", "id", playlist.ID)
		return nil, err
	}
	s.logger.Debug("attached tracks", "id", playlist.ID, "count", len(refs))

	return playlist, nil
}

// CurrentUser retrieves the profile of the user the credential belongs to.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, StepIdentity, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &StepError{Step: StepIdentity, Err: errors.New("response has no user id")}
	}
	return &user, nil
}

// NewPlaylist creates an empty playlist owned by userID using the configured name, description and visibility.
func (s *SpotifyService) NewPlaylist(ctx context.Context, userID string) (*SpotifyPlaylist, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := createPlaylistRequest{
		Name:        s.name,
		Description: s.description,
		Public:      s.public,
	}

	var playlist SpotifyPlaylist
	if err := s.doRequest(ctx, StepCreate, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, err
	}
	if playlist.ID == "" {
		return nil, &StepError{Step: StepCreate, Err: errors.New("response has no playlist id")}
	}
	return &playlist, nil
}

// AddTracks attaches refs to a playlist in a single call, preserving order.
//
// The refs travel comma-joined in the uris query parameter; the response body is discarded.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, refs []models.TrackRef) error {
	query := url.Values{"uris": {strings.Join(refs, ",")}}
	endpoint := fmt.Sprintf("/playlists/%s/tracks?%s", url.PathEscape(playlistID), query.Encode())
	return s.doRequest(ctx, StepAttach, http.MethodPost, endpoint, nil, nil)
}

// Unfollow removes the playlist from the current user's library, which is how Spotify deletes an owned playlist.
func (s *SpotifyService) Unfollow(ctx context.Context, playlistID string) error {
	endpoint := fmt.Sprintf("/playlists/%s/followers", url.PathEscape(playlistID))
	return s.doRequest(ctx, StepRollback, http.MethodDelete, endpoint, nil, nil)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, step Step, method, endpoint string, body any, result any) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return &StepError{Step: step, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &StepError{Step: step, Err: fmt.Errorf("failed to encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return &StepError{Step: step, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &StepError{Step: step, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StepError{
			Step:    step,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp.Body),
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &StepError{Step: step, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	return nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}

	var envelope spotifyError
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(data))
}

func toPlaylist(sp *SpotifyPlaylist) *models.Playlist {
	return &models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Public:      sp.Public,
		URI:         sp.URI,
		OwnerID:     sp.Owner.ID,
	}
}
