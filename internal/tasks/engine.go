package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/services"
	"github.com/desertthunder/discojam/internal/shared"
)

const (
	// Sample sizes for the listening-history read.
	topArtistLimit = 10
	topTrackLimit  = 10

	// Seed budget: the provider caps combined seeds at five.
	genreSeedCount  = 2
	artistSeedCount = 3

	// Narrow, low popularity band. The whole point of the app is surfacing
	// tracks the charts have not.
	minPopularity    = 0
	targetPopularity = 4
	maxPopularity    = 8

	recommendationLimit = 20
)

// DiscoveryEngine derives seeded recommendations from a user's listening
// history. One engine per request-bound provider; the engine holds no state
// between calls.
type DiscoveryEngine struct {
	provider services.Provider
	logger   *log.Logger
}

// NewDiscoveryEngine creates an engine around a token-bound provider.
func NewDiscoveryEngine(provider services.Provider, logger *log.Logger) *DiscoveryEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DiscoveryEngine{provider: provider, logger: logger}
}

// Discover runs the full pipeline: read history, rank seeds, summarize
// features, request recommendations, and partition the result.
func (e *DiscoveryEngine) Discover(ctx context.Context) (*models.Discovery, error) {
	artists, err := e.provider.TopArtists(ctx, topArtistLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching top artists: %w", err)
	}
	if len(artists) == 0 {
		return nil, fmt.Errorf("%w: no top artists", shared.ErrInsufficientData)
	}

	tracks, err := e.provider.TopTracks(ctx, topTrackLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no top tracks", shared.ErrInsufficientData)
	}

	trackIDs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		trackIDs = append(trackIDs, t.ID)
	}

	samples, err := e.provider.AudioFeatures(ctx, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching audio features: %w", err)
	}

	summary, err := SummarizeFeatures(samples)
	if err != nil {
		return nil, err
	}

	genres := make([]string, 0, len(artists)*3)
	artistIDs := make([]string, 0, len(artists))
	known := make(map[string]bool, len(artists))
	for _, a := range artists {
		genres = append(genres, a.Genres...)
		artistIDs = append(artistIDs, a.ID)
		known[a.ID] = true
	}

	seedGenres := RankTags(genres, genreSeedCount)
	seedArtists := RankTags(artistIDs, artistSeedCount)

	e.logger.Debug("requesting recommendations",
		"seed_genres", seedGenres,
		"seed_artists", seedArtists,
	)

	recs, err := e.provider.Recommendations(ctx, services.RecommendationParams{
		SeedArtists:      seedArtists,
		SeedGenres:       seedGenres,
		Danceability:     bounds(summary.Danceability),
		Energy:           bounds(summary.Energy),
		Valence:          bounds(summary.Valence),
		MinPopularity:    minPopularity,
		TargetPopularity: targetPopularity,
		MaxPopularity:    maxPopularity,
		Limit:            recommendationLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching recommendations: %w", err)
	}

	discovery := &models.Discovery{
		GenreSeeds: recs.GenreSeeds,
		Tracks:     FilterKnownArtists(recs.Tracks, known),
	}

	if len(recs.ArtistSeedIDs) > 0 {
		seeds, err := e.provider.SeveralArtists(ctx, recs.ArtistSeedIDs)
		if err != nil {
			return nil, fmt.Errorf("resolving artist seeds: %w", err)
		}
		discovery.ArtistSeeds = make([]models.ArtistSeed, 0, len(seeds))
		for _, a := range seeds {
			discovery.ArtistSeeds = append(discovery.ArtistSeeds, models.ArtistSeed{
				ID:       a.ID,
				Name:     a.Name,
				ImageURL: a.ImageURL,
			})
		}
	}

	return discovery, nil
}

// bounds maps a feature summary onto a recommendation constraint: the
// observed range as min/max and the mean as target.
func bounds(s models.Stats) services.FeatureBounds {
	return services.FeatureBounds{Min: s.Min, Target: s.Mean, Max: s.Max}
}
