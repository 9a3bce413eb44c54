// package services defines interface Provider for interacting with the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/discojam/internal/models"
	"golang.org/x/oauth2"
)

// Provider defines the surface of the music-streaming API the application
// depends on. The concrete implementation is [SpotifyService]; tests
// substitute doubles.
type Provider interface {
	// AuthURL returns the provider's authorization URL for the given CSRF state.
	AuthURL(state string) string

	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// Refresh obtains a fresh token using the refresh token carried by tok.
	// Returns shared.ErrNoRefreshToken when tok has none and
	// shared.ErrRefreshFailed when the provider rejects the refresh.
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)

	// WithToken returns a Provider bound to the given bearer token.
	// The receiver is not mutated; each request handler binds its own copy.
	WithToken(tok *oauth2.Token) Provider

	// UserProfile retrieves the authenticated user's profile.
	UserProfile(ctx context.Context) (*models.User, error)

	// TopArtists retrieves the user's most-played artists over the long-term window.
	TopArtists(ctx context.Context, limit int) ([]models.Artist, error)

	// TopTracks retrieves the user's most-played tracks over the long-term window.
	TopTracks(ctx context.Context, limit int) ([]models.Track, error)

	// AudioFeatures retrieves audio-feature samples for up to 100 tracks.
	AudioFeatures(ctx context.Context, trackIDs []string) ([]models.AudioSample, error)

	// Recommendations requests seeded track recommendations.
	Recommendations(ctx context.Context, params RecommendationParams) (*RecommendationResult, error)

	// SeveralArtists resolves artist ids to full artist objects.
	SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error)

	// UserPlaylists retrieves the user's playlists, most recent first.
	UserPlaylists(ctx context.Context, limit, offset int) ([]models.Playlist, error)

	// CreatePlaylist creates a playlist for the user and returns it, id included.
	CreatePlaylist(ctx context.Context, userID, name, description string) (*models.Playlist, error)

	// AddTracks appends tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// UploadPlaylistCover replaces a playlist's cover image with the given base64-encoded JPEG.
	UploadPlaylistCover(ctx context.Context, playlistID string, jpegBase64 string) error
}

// FeatureBounds carries the min/target/max values for one audio-feature
// dimension of a recommendation request.
type FeatureBounds struct {
	Min    float64
	Target float64
	Max    float64
}

// RecommendationParams parameterizes a recommendations request.
//
// The provider caps combined seeds at five; callers pass at most three
// artists and two genres.
type RecommendationParams struct {
	SeedArtists []string
	SeedGenres  []string

	Danceability FeatureBounds
	Energy       FeatureBounds
	Valence      FeatureBounds

	MinPopularity    int
	TargetPopularity int
	MaxPopularity    int

	Limit int
}

// RecommendationResult is the raw outcome of a recommendations request:
// candidate tracks plus the seeds the provider echoed back.
type RecommendationResult struct {
	Tracks        []models.Track
	ArtistSeedIDs []string
	GenreSeeds    []string
}
