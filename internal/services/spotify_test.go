package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/soundbits/internal/models"
	"github.com/desertthunder/soundbits/internal/shared"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
	At     time.Time
}

// fakeSpotify is an httptest server that records requests and answers with configurable statuses.
type fakeSpotify struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	status   map[string]int // keyed by "METHOD path"
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{status: map[string]int{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSpotify) fail(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[method+" "+path] = status
}

func (f *fakeSpotify) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeSpotify) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query().Get("uris"),
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
		At:     time.Now(),
	})
	status, failing := f.status[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"error":{"status":`+strconv.Itoa(status)+`,"message":"stubbed failure"}}`)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/me":
		_, _ = io.WriteString(w, `{"id":"user-1","display_name":"Test User"}`)
	case r.Method == http.MethodPost && r.URL.Path == "/users/user-1/playlists":
		var req createPlaylistRequest
		_ = json.Unmarshal(body, &req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(SpotifyPlaylist{
			ID:          "pl-1",
			Name:        req.Name,
			Description: req.Description,
			Public:      req.Public,
			Owner:       Owner{ID: "user-1"},
			URI:         "spotify:playlist:pl-1",
		})
	case r.Method == http.MethodPost && r.URL.Path == "/playlists/pl-1/tracks":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"snapshot_id":"snap"}`)
	case r.Method == http.MethodDelete && r.URL.Path == "/playlists/pl-1/followers":
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestService(t *testing.T, f *fakeSpotify, opts Options) *SpotifyService {
	t.Helper()
	opts.BaseURL = f.URL
	if opts.Token == "" {
		opts.Token = "test-token"
	}
	svc, err := NewSpotifyService(opts)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return svc
}

func paths(reqs []recordedRequest) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method + " " + r.Path
	}
	return out
}

var fiveRefs = []models.TrackRef{
	"spotify:track:6rqhFgbbKwnb9MLmUQDhG6",
	"spotify:track:3n3Ppam7vgaVa1iaRUc9Lp",
	"spotify:track:0VjIjW4GlUZAMYd2vXMi3b",
	"spotify:track:7qiZfU4dY1lWllzX7mPBI3",
	"spotify:track:1zi7xx7UVEFkmKfv06H8x0",
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("Missing Token", func(t *testing.T) {
			_, err := NewSpotifyService(Options{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			svc, err := NewSpotifyService(Options{Token: "token"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", svc.Name())
			}
			if svc.baseURL != spotifyBaseURL {
				t.Errorf("expected base URL %s, got %s", spotifyBaseURL, svc.baseURL)
			}
			if svc.name != defaultPlaylistName || svc.description != defaultPlaylistDescription {
				t.Errorf("unexpected defaults: %q %q", svc.name, svc.description)
			}
			if svc.public {
				t.Error("expected playlists to be private by default")
			}
			if svc.limiter != nil {
				t.Error("expected no limiter when RequestsPerSecond is 0")
			}
		})

		t.Run("Trims Base URL", func(t *testing.T) {
			svc, err := NewSpotifyService(Options{Token: "token", BaseURL: "http://example.test/v1/"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.baseURL != "http://example.test/v1" {
				t.Errorf("expected trailing slash trimmed, got %s", svc.baseURL)
			}
		})

		t.Run("NewPlaylistCreator", func(t *testing.T) {
			creator, err := NewPlaylistCreator(Options{Token: "token"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, ok := creator.(*SpotifyService); !ok {
				t.Errorf("expected *SpotifyService, got %T", creator)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		t.Run("Issues Calls In Order", func(t *testing.T) {
			f := newFakeSpotify(t)
			svc := newTestService(t, f, Options{Name: "Mix", Description: "desc"})

			playlist, err := svc.CreatePlaylist(context.Background(), fiveRefs)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got := paths(f.recorded())
			want := []string{"GET /me", "POST /users/user-1/playlists", "POST /playlists/pl-1/tracks"}
			if strings.Join(got, "|") != strings.Join(want, "|") {
				t.Errorf("expected calls %v, got %v", want, got)
			}

			if playlist.ID != "pl-1" || playlist.Name != "Mix" || playlist.Description != "desc" {
				t.Errorf("unexpected playlist: %+v", playlist)
			}
			if playlist.OwnerID != "user-1" || playlist.URI != "spotify:playlist:pl-1" {
				t.Errorf("unexpected owner or uri: %+v", playlist)
			}
		})

		t.Run("Sends Create Body", func(t *testing.T) {
			f := newFakeSpotify(t)
			svc := newTestService(t, f, Options{Name: "Mix", Description: "desc"})

			if _, err := svc.CreatePlaylist(context.Background(), fiveRefs[:1]); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var body map[string]any
			if err := json.Unmarshal(f.recorded()[1].Body, &body); err != nil {
				t.Fatalf("failed to decode create body: %v", err)
			}
			if body["name"] != "Mix" || body["description"] != "desc" || body["public"] != false {
				t.Errorf("unexpected create body: %v", body)
			}
		})

		t.Run("Joins Track Refs In Order", func(t *testing.T) {
			tests := []struct {
				name string
				refs []models.TrackRef
			}{
				{name: "single", refs: fiveRefs[:1]},
				{name: "five", refs: fiveRefs},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					f := newFakeSpotify(t)
					svc := newTestService(t, f, Options{})

					if _, err := svc.CreatePlaylist(context.Background(), tt.refs); err != nil {
						t.Fatalf("expected no error, got %v", err)
					}

					reqs := f.recorded()
					attach := reqs[len(reqs)-1]
					if want := strings.Join(tt.refs, ","); attach.Query != want {
						t.Errorf("expected uris %q, got %q", want, attach.Query)
					}
				})
			}
		})

		t.Run("Sends Bearer Token", func(t *testing.T) {
			f := newFakeSpotify(t)
			svc := newTestService(t, f, Options{Token: "secret-token"})

			if _, err := svc.CreatePlaylist(context.Background(), fiveRefs[:2]); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			for _, r := range f.recorded() {
				if r.Auth != "Bearer secret-token" {
					t.Errorf("%s %s: expected bearer header, got %q", r.Method, r.Path, r.Auth)
				}
			}
		})

		t.Run("Empty Refs", func(t *testing.T) {
			f := newFakeSpotify(t)
			svc := newTestService(t, f, Options{})

			_, err := svc.CreatePlaylist(context.Background(), nil)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if n := len(f.recorded()); n != 0 {
				t.Errorf("expected no requests, got %d", n)
			}
		})

		t.Run("Identity Failure", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.fail(http.MethodGet, "/me", http.StatusUnauthorized)
			svc := newTestService(t, f, Options{})

			_, err := svc.CreatePlaylist(context.Background(), fiveRefs)
			if FailedStep(err) != StepIdentity {
				t.Errorf("expected identity step, got %q (%v)", FailedStep(err), err)
			}
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired for 401, got %v", err)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if n := len(f.recorded()); n != 1 {
				t.Errorf("expected 1 request, got %d", n)
			}
		})

		t.Run("Create Failure Never Attaches", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.fail(http.MethodPost, "/users/user-1/playlists", http.StatusForbidden)
			svc := newTestService(t, f, Options{})

			playlist, err := svc.CreatePlaylist(context.Background(), fiveRefs)
			if playlist != nil {
				t.Errorf("expected no playlist, got %+v", playlist)
			}

			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("expected *StepError, got %v", err)
			}
			if stepErr.Step != StepCreate || stepErr.Status != http.StatusForbidden {
				t.Errorf("unexpected step error: %+v", stepErr)
			}
			if stepErr.Message != "stubbed failure" {
				t.Errorf("expected API message, got %q", stepErr.Message)
			}
			if errors.Is(err, shared.ErrTokenExpired) {
				t.Error("403 should not match ErrTokenExpired")
			}

			for _, r := range f.recorded() {
				if strings.HasSuffix(r.Path, "/tracks") {
					t.Errorf("attach issued after failed create: %s %s", r.Method, r.Path)
				}
			}
		})

		t.Run("Attach Failure Without Rollback", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.fail(http.MethodPost, "/playlists/pl-1/tracks", http.StatusBadRequest)
			svc := newTestService(t, f, Options{})

			playlist, err := svc.CreatePlaylist(context.Background(), fiveRefs)
			if FailedStep(err) != StepAttach {
				t.Errorf("expected attach step, got %q", FailedStep(err))
			}
			if playlist == nil || playlist.ID != "pl-1" {
				t.Errorf("expected partially created playlist, got %+v", playlist)
			}

			for _, r := range f.recorded() {
				if r.Method == http.MethodDelete {
					t.Error("rollback issued while disabled")
				}
			}
		})

		t.Run("Attach Failure With Rollback", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.fail(http.MethodPost, "/playlists/pl-1/tracks", http.StatusBadRequest)
			svc := newTestService(t, f, Options{RollbackOnFailure: true})

			playlist, err := svc.CreatePlaylist(context.Background(), fiveRefs)
			if playlist != nil {
				t.Errorf("expected no playlist after rollback, got %+v", playlist)
			}
			if FailedStep(err) != StepAttach {
				t.Errorf("expected attach step, got %q", FailedStep(err))
			}

			got := paths(f.recorded())
			if last := got[len(got)-1]; last != "DELETE /playlists/pl-1/followers" {
				t.Errorf("expected rollback call last, got %v", got)
			}
		})

		t.Run("Rollback Failure Is Joined", func(t *testing.T) {
			f := newFakeSpotify(t)
			f.fail(http.MethodPost, "/playlists/pl-1/tracks", http.StatusBadRequest)
			f.fail(http.MethodDelete, "/playlists/pl-1/followers", http.StatusInternalServerError)
			svc := newTestService(t, f, Options{RollbackOnFailure: true})

			playlist, err := svc.CreatePlaylist(context.Background(), fiveRefs)
			if playlist == nil {
				t.Error("expected playlist when rollback fails")
			}
			if !strings.Contains(err.Error(), string(StepAttach)) || !strings.Contains(err.Error(), string(StepRollback)) {
				t.Errorf("expected both steps in error, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			f := newFakeSpotify(t)
			svc := newTestService(t, f, Options{})
			f.Close()

			_, err := svc.CreatePlaylist(context.Background(), fiveRefs)
			var stepErr *StepError
			if !errors.As(err, &stepErr) {
				t.Fatalf("expected *StepError, got %v", err)
			}
			if stepErr.Status != 0 || stepErr.Err == nil {
				t.Errorf("expected transport error without status, got %+v", stepErr)
			}
		})

		t.Run("Requests Are Paced", func(t *testing.T) {
			f := newFakeSpotify(t)
			svc := newTestService(t, f, Options{RequestsPerSecond: 20})

			if _, err := svc.CreatePlaylist(context.Background(), fiveRefs); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			reqs := f.recorded()
			if len(reqs) != 3 {
				t.Fatalf("expected 3 requests, got %v", paths(reqs))
			}
			// 20 per second with a burst of one leaves 50ms between calls.
			for i := 1; i < len(reqs); i++ {
				if gap := reqs[i].At.Sub(reqs[i-1].At); gap < 40*time.Millisecond {
					t.Errorf("expected request %d to wait for the limiter, gap was %v", i, gap)
				}
			}
		})

		t.Run("Cancelled Context", func(t *testing.T) {
			f := newFakeSpotify(t)
			svc := newTestService(t, f, Options{RequestsPerSecond: 1})

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := svc.CreatePlaylist(ctx, fiveRefs)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
			if n := len(f.recorded()); n != 0 {
				t.Errorf("expected no requests, got %d", n)
			}
		})
	})
}

func TestStepError(t *testing.T) {
	tests := []struct {
		name string
		err  *StepError
		want string
	}{
		{
			name: "status and message",
			err:  &StepError{Step: StepCreate, Status: 403, Message: "forbidden"},
			want: "API request failed: create step returned 403 Forbidden: forbidden",
		},
		{
			name: "transport",
			err:  &StepError{Step: StepIdentity, Err: errors.New("dial tcp: refused")},
			want: "API request failed: identity step: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewAuthConfig(t *testing.T) {
	cfg := NewAuthConfig("id", "secret", "http://127.0.0.1:3000/callback")

	if cfg.ClientID != "id" || cfg.ClientSecret != "secret" {
		t.Errorf("unexpected credentials: %+v", cfg)
	}
	if !strings.HasPrefix(cfg.Endpoint.AuthURL, "https://accounts.spotify.com/") {
		t.Errorf("unexpected auth URL: %s", cfg.Endpoint.AuthURL)
	}

	url := cfg.AuthCodeURL("state-1")
	for _, want := range []string{"state=state-1", "playlist-modify-private", "client_id=id"} {
		if !strings.Contains(url, want) {
			t.Errorf("expected %q in auth URL %s", want, url)
		}
	}
}
