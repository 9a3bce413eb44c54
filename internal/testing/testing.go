// package testing contains shared testing utilities
package testing

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/server"
	"github.com/desertthunder/discojam/internal/services"
	"github.com/desertthunder/discojam/internal/shared"
	"golang.org/x/oauth2"
)

// MockProvider is a test double for [services.Provider]. Each behavior is a
// function field; unset fields return zero values so tests only stub what
// they exercise.
type MockProvider struct {
	AuthURLFn         func(state string) string
	ExchangeFn        func(ctx context.Context, code string) (*oauth2.Token, error)
	RefreshFn         func(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
	UserProfileFn     func(ctx context.Context) (*models.User, error)
	TopArtistsFn      func(ctx context.Context, limit int) ([]models.Artist, error)
	TopTracksFn       func(ctx context.Context, limit int) ([]models.Track, error)
	AudioFeaturesFn   func(ctx context.Context, trackIDs []string) ([]models.AudioSample, error)
	RecommendationsFn func(ctx context.Context, params services.RecommendationParams) (*services.RecommendationResult, error)
	SeveralArtistsFn  func(ctx context.Context, artistIDs []string) ([]models.Artist, error)
	UserPlaylistsFn   func(ctx context.Context, limit, offset int) ([]models.Playlist, error)
	CreatePlaylistFn  func(ctx context.Context, userID, name, description string) (*models.Playlist, error)
	AddTracksFn       func(ctx context.Context, playlistID string, trackIDs []string) error
	UploadCoverFn     func(ctx context.Context, playlistID string, jpegBase64 string) error

	// BoundToken records the token passed to the most recent WithToken call.
	BoundToken *oauth2.Token
}

var _ services.Provider = (*MockProvider)(nil)

func (m *MockProvider) AuthURL(state string) string {
	if m.AuthURLFn != nil {
		return m.AuthURLFn(state)
	}
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.ExchangeFn != nil {
		return m.ExchangeFn(ctx, code)
	}
	return &oauth2.Token{AccessToken: "mock-access-token"}, nil
}

func (m *MockProvider) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, tok)
	}
	return nil, shared.ErrNoRefreshToken
}

func (m *MockProvider) WithToken(tok *oauth2.Token) services.Provider {
	m.BoundToken = tok
	return m
}

func (m *MockProvider) UserProfile(ctx context.Context) (*models.User, error) {
	if m.UserProfileFn != nil {
		return m.UserProfileFn(ctx)
	}
	return &models.User{ID: "mock-user", DisplayName: "Mock User"}, nil
}

func (m *MockProvider) TopArtists(ctx context.Context, limit int) ([]models.Artist, error) {
	if m.TopArtistsFn != nil {
		return m.TopArtistsFn(ctx, limit)
	}
	return nil, nil
}

func (m *MockProvider) TopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	if m.TopTracksFn != nil {
		return m.TopTracksFn(ctx, limit)
	}
	return nil, nil
}

func (m *MockProvider) AudioFeatures(ctx context.Context, trackIDs []string) ([]models.AudioSample, error) {
	if m.AudioFeaturesFn != nil {
		return m.AudioFeaturesFn(ctx, trackIDs)
	}
	return nil, nil
}

func (m *MockProvider) Recommendations(ctx context.Context, params services.RecommendationParams) (*services.RecommendationResult, error) {
	if m.RecommendationsFn != nil {
		return m.RecommendationsFn(ctx, params)
	}
	return &services.RecommendationResult{}, nil
}

func (m *MockProvider) SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	if m.SeveralArtistsFn != nil {
		return m.SeveralArtistsFn(ctx, artistIDs)
	}
	return nil, nil
}

func (m *MockProvider) UserPlaylists(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
	if m.UserPlaylistsFn != nil {
		return m.UserPlaylistsFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockProvider) CreatePlaylist(ctx context.Context, userID, name, description string) (*models.Playlist, error) {
	if m.CreatePlaylistFn != nil {
		return m.CreatePlaylistFn(ctx, userID, name, description)
	}
	return &models.Playlist{ID: "mock-playlist", Name: name, Description: description}, nil
}

func (m *MockProvider) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if m.AddTracksFn != nil {
		return m.AddTracksFn(ctx, playlistID, trackIDs)
	}
	return nil
}

func (m *MockProvider) UploadPlaylistCover(ctx context.Context, playlistID string, jpegBase64 string) error {
	if m.UploadCoverFn != nil {
		return m.UploadCoverFn(ctx, playlistID, jpegBase64)
	}
	return nil
}

// MemoryTokenStore is an in-memory test double for [server.TokenStore]. It
// ignores the request/response pair, so tests exercise handler logic without
// cookie plumbing.
type MemoryTokenStore struct {
	Tok   *oauth2.Token
	State string

	SetTokenCalls int
	ClearCalls    int
}

var _ server.TokenStore = (*MemoryTokenStore)(nil)

func (s *MemoryTokenStore) Token(r *http.Request) (*oauth2.Token, error) {
	if s.Tok == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.Tok, nil
}

func (s *MemoryTokenStore) SetToken(w http.ResponseWriter, r *http.Request, tok *oauth2.Token) error {
	s.Tok = tok
	s.SetTokenCalls++
	return nil
}

func (s *MemoryTokenStore) Clear(w http.ResponseWriter, r *http.Request) error {
	s.Tok = nil
	s.State = ""
	s.ClearCalls++
	return nil
}

func (s *MemoryTokenStore) SetState(w http.ResponseWriter, r *http.Request, state string) error {
	s.State = state
	return nil
}

func (s *MemoryTokenStore) TakeState(w http.ResponseWriter, r *http.Request) (string, error) {
	if s.State == "" {
		return "", shared.ErrInvalidState
	}
	state := s.State
	s.State = ""
	return state, nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}
