// Spotify API implementation of [Provider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Every outbound call gets a hard deadline; the upstream API has none of
	// its own and a hung request must not pin the handler goroutine.
	requestTimeout = 15 * time.Second

	// Client-side politeness limit for outbound calls, requests per second.
	requestsPerSecond = 8
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Popularity   int             `json:"popularity"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyAudioFeatures represents the audio-feature vector for a track.
type SpotifyAudioFeatures struct {
	ID           string  `json:"id"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
}

// SpotifySeed represents a seed echoed back by the recommendations endpoint.
type SpotifySeed struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// SpotifyRecommendations represents a recommendations response.
type SpotifyRecommendations struct {
	Tracks []SpotifyTrack `json:"tracks"`
	Seeds  []SpotifySeed  `json:"seeds"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Public       bool              `json:"public"`
	Tracks       playlistTracksRef `json:"tracks"`
	ExternalURLs externalURLs      `json:"external_urls"`
	Images       []SpotifyImage    `json:"images"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

type pagedArtists struct {
	Items []SpotifyArtist `json:"items"`
}

type pagedTracks struct {
	Items []SpotifyTrack `json:"items"`
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

type addTracksRequest struct {
	URIs []string `json:"uris"`
}

// SpotifyService implements the [Provider] interface for Spotify API interactions.
// Uses [oauth2] for authentication and a [rate.Limiter] to keep outbound
// request volume polite.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

var _ Provider = (*SpotifyService)(nil)

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(cfg shared.SpotifyConfig) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:5000/callback"
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{
			"user-top-read",
			"playlist-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
			"ugc-image-upload",
		}
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		baseURL:    spotifyBaseURL,
	}, nil
}

// AuthURL returns the OAuth2 authorization URL for user login.
//
// show_dialog forces the consent screen so a shared browser can switch accounts.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh obtains a fresh token using the refresh token carried by tok.
func (s *SpotifyService) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	refreshed, err := s.config.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	return refreshed, nil
}

// WithToken returns a copy of the service bound to the given bearer token.
func (s *SpotifyService) WithToken(tok *oauth2.Token) Provider {
	bound := *s
	bound.token = tok
	return &bound
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: no token bound", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	apiURL := s.baseURL + endpoint

	reader := bytes.NewReader(nil)
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// doRaw performs an authenticated request with a non-JSON body, used by the
// cover-image upload endpoint which takes base64 JPEG bytes directly.
func (s *SpotifyService) doRaw(ctx context.Context, method, endpoint, contentType string, body []byte) error {
	if s.token == nil {
		return fmt.Errorf("%w: no token bound", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*models.User, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}

	display := user.DisplayName
	if display == "" {
		display = user.ID
	}

	return &models.User{ID: user.ID, DisplayName: display}, nil
}

// TopArtists retrieves the user's most-played artists over the long-term window.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int) ([]models.Artist, error) {
	limit = clampLimit(limit, 10)
	endpoint := fmt.Sprintf("/me/top/artists?time_range=long_term&limit=%d", limit)

	var response pagedArtists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Items))
	for _, item := range response.Items {
		artists = append(artists, artistToModel(item))
	}
	return artists, nil
}

// TopTracks retrieves the user's most-played tracks over the long-term window.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	limit = clampLimit(limit, 10)
	endpoint := fmt.Sprintf("/me/top/tracks?time_range=long_term&limit=%d", limit)

	var response pagedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Items))
	for _, item := range response.Items {
		tracks = append(tracks, trackToModel(item))
	}
	return tracks, nil
}

// AudioFeatures retrieves audio-feature samples for the given tracks (up to 100).
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs []string) ([]models.AudioSample, error) {
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}
	if len(trackIDs) > 100 {
		return nil, fmt.Errorf("%w: maximum 100 track IDs allowed", shared.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(strings.Join(trackIDs, ",")))

	var response struct {
		AudioFeatures []*SpotifyAudioFeatures `json:"audio_features"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	// The API returns null entries for unanalyzed tracks; skip them rather
	// than contributing zeroes to the summary.
	samples := make([]models.AudioSample, 0, len(response.AudioFeatures))
	for _, af := range response.AudioFeatures {
		if af == nil {
			continue
		}
		samples = append(samples, models.AudioSample{
			Danceability: af.Danceability,
			Energy:       af.Energy,
			Valence:      af.Valence,
		})
	}
	return samples, nil
}

// Recommendations requests seeded track recommendations with audio-feature
// and popularity bounds.
func (s *SpotifyService) Recommendations(ctx context.Context, params RecommendationParams) (*RecommendationResult, error) {
	if len(params.SeedArtists)+len(params.SeedGenres) == 0 {
		return nil, fmt.Errorf("%w: at least one seed required", shared.ErrInvalidInput)
	}
	if len(params.SeedArtists)+len(params.SeedGenres) > 5 {
		return nil, fmt.Errorf("%w: maximum 5 combined seeds", shared.ErrInvalidArgument)
	}

	q := url.Values{}
	if len(params.SeedArtists) > 0 {
		q.Set("seed_artists", strings.Join(params.SeedArtists, ","))
	}
	if len(params.SeedGenres) > 0 {
		q.Set("seed_genres", strings.Join(params.SeedGenres, ","))
	}

	setBounds(q, "danceability", params.Danceability)
	setBounds(q, "energy", params.Energy)
	setBounds(q, "valence", params.Valence)

	q.Set("min_popularity", strconv.Itoa(params.MinPopularity))
	q.Set("target_popularity", strconv.Itoa(params.TargetPopularity))
	q.Set("max_popularity", strconv.Itoa(params.MaxPopularity))

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("limit", strconv.Itoa(limit))

	var response SpotifyRecommendations
	if err := s.doRequest(ctx, http.MethodGet, "/recommendations?"+q.Encode(), nil, &response); err != nil {
		return nil, err
	}

	result := &RecommendationResult{Tracks: make([]models.Track, 0, len(response.Tracks))}
	for _, tr := range response.Tracks {
		result.Tracks = append(result.Tracks, trackToModel(tr))
	}
	for _, seed := range response.Seeds {
		switch strings.ToUpper(seed.Type) {
		case "ARTIST":
			result.ArtistSeedIDs = append(result.ArtistSeedIDs, seed.ID)
		case "GENRE":
			result.GenreSeeds = append(result.GenreSeeds, seed.ID)
		}
	}
	return result, nil
}

// SeveralArtists retrieves multiple artists by their IDs (up to 50).
func (s *SpotifyService) SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	if len(artistIDs) == 0 {
		return nil, fmt.Errorf("%w: no artist IDs provided", shared.ErrInvalidInput)
	}
	if len(artistIDs) > 50 {
		return nil, fmt.Errorf("%w: maximum 50 artist IDs allowed", shared.ErrInvalidArgument)
	}

	endpoint := fmt.Sprintf("/artists?ids=%s", url.QueryEscape(strings.Join(artistIDs, ",")))

	var response struct {
		Artists []SpotifyArtist `json:"artists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	artists := make([]models.Artist, 0, len(response.Artists))
	for _, item := range response.Artists {
		artists = append(artists, artistToModel(item))
	}
	return artists, nil
}

// UserPlaylists retrieves the current user's playlists with pagination, most recent first.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
	limit = clampLimit(limit, 20)
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(response.Items))
	for _, sp := range response.Items {
		playlists = append(playlists, models.Playlist{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			ExternalURL: sp.ExternalURLs.Spotify,
			TrackCount:  sp.Tracks.Total,
		})
	}
	return playlists, nil
}

// CreatePlaylist creates a private playlist for the user.
//
// The create response carries the playlist id and external URL, so callers
// never need to re-list playlists to find what they just made.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string) (*models.Playlist, error) {
	if userID == "" || name == "" {
		return nil, fmt.Errorf("%w: user id and name are required", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := createPlaylistRequest{Name: name, Description: description, Public: false}

	var created SpotifySimplePlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		ExternalURL: created.ExternalURLs.Spotify,
	}, nil
}

// AddTracks appends the given tracks to a playlist.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: no track IDs provided", shared.ErrInvalidInput)
	}

	uris := make([]string, 0, len(trackIDs))
	for _, id := range trackIDs {
		uris = append(uris, "spotify:track:"+id)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, addTracksRequest{URIs: uris}, nil)
}

// UploadPlaylistCover replaces a playlist's cover with a base64-encoded JPEG.
func (s *SpotifyService) UploadPlaylistCover(ctx context.Context, playlistID string, jpegBase64 string) error {
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	}
	if jpegBase64 == "" {
		return fmt.Errorf("%w: empty image payload", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/images", url.PathEscape(playlistID))
	return s.doRaw(ctx, http.MethodPut, endpoint, "image/jpeg", []byte(jpegBase64))
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 50 {
		return 50
	}
	return limit
}

func setBounds(q url.Values, feature string, b FeatureBounds) {
	q.Set("min_"+feature, formatFeature(b.Min))
	q.Set("target_"+feature, formatFeature(b.Target))
	q.Set("max_"+feature, formatFeature(b.Max))
}

func formatFeature(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func artistToModel(a SpotifyArtist) models.Artist {
	return models.Artist{
		ID:       a.ID,
		Name:     a.Name,
		Genres:   a.Genres,
		ImageURL: firstImageURL(a.Images),
	}
}

func trackToModel(t SpotifyTrack) models.Track {
	track := models.Track{
		ID:         t.ID,
		Name:       t.Name,
		ImageURL:   firstImageURL(t.Album.Images),
		PreviewURL: t.PreviewURL,
		DurationMS: t.DurationMS,
	}
	if len(t.Artists) > 0 {
		track.ArtistID = t.Artists[0].ID
		track.ArtistName = t.Artists[0].Name
	}
	return track
}

func firstImageURL(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
