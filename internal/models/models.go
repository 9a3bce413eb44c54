// package models defines the data model for the discovery playlist web service
//
// All entities are transient and request-scoped: they are fetched from the
// Spotify Web API, transformed, rendered, and discarded. Nothing here is
// persisted.
package models

// User is the authenticated Spotify user's profile.
type User struct {
	ID          string // Spotify user id
	DisplayName string // Display name used for playlist naming
}

// Artist is one of the user's most-played artists over the long-term window.
type Artist struct {
	ID       string   // Spotify artist id
	Name     string   // Artist name
	Genres   []string // Genre tags assigned by Spotify
	ImageURL string   // Largest available artist image, may be empty
}

// Track is one of the user's most-played tracks over the long-term window.
type Track struct {
	ID         string // Spotify track id
	Name       string // Track title
	ArtistID   string // Primary artist id
	ArtistName string // Primary artist name
	ImageURL   string // Album art, may be empty
	PreviewURL string // 30s audio preview, may be empty
	DurationMS int    // Track duration in milliseconds
}

// AudioSample holds the three audio-feature dimensions for one track.
//
// All values are provider-assigned descriptors in [0, 1].
type AudioSample struct {
	Danceability float64
	Energy       float64
	Valence      float64
}

// Stats holds the summary of one feature dimension across the track sample.
type Stats struct {
	Min  float64
	Mean float64
	Max  float64
}

// FeatureSummary aggregates per-dimension stats across the sampled tracks.
type FeatureSummary struct {
	Danceability Stats
	Energy       Stats
	Valence      Stats
}

// ArtistSeed is a recommendation seed echoed by the provider, resolved to a
// displayable artist.
type ArtistSeed struct {
	ID       string
	Name     string
	ImageURL string
}

// Discovery is the full result of the recommendation pipeline for one request.
type Discovery struct {
	ArtistSeeds []ArtistSeed // Seeds the provider anchored on, resolved
	GenreSeeds  []string     // Genre seeds, raw tag strings
	Tracks      []Track      // Candidate tracks, known artists filtered out
}

// Playlist is a playlist owned by the user, as listed by the provider.
type Playlist struct {
	ID          string
	Name        string
	Description string
	ExternalURL string
	TrackCount  int
}

// CreatedPlaylist is the outcome of a successful playlist-creation run.
type CreatedPlaylist struct {
	ID          string
	Name        string
	ExternalURL string
}
