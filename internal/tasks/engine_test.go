package tasks

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/services"
	"github.com/desertthunder/discojam/internal/shared"
	tu "github.com/desertthunder/discojam/internal/testing"
)

func historyProvider() *tu.MockProvider {
	return &tu.MockProvider{
		TopArtistsFn: func(ctx context.Context, limit int) ([]models.Artist, error) {
			return []models.Artist{
				{ID: "a1", Name: "Alpha", Genres: []string{"shoegaze", "dream pop"}},
				{ID: "a2", Name: "Beta", Genres: []string{"shoegaze"}},
				{ID: "a3", Name: "Gamma", Genres: []string{"slowcore"}},
			}, nil
		},
		TopTracksFn: func(ctx context.Context, limit int) ([]models.Track, error) {
			return []models.Track{
				{ID: "t1", ArtistID: "a1"},
				{ID: "t2", ArtistID: "a2"},
			}, nil
		},
		AudioFeaturesFn: func(ctx context.Context, trackIDs []string) ([]models.AudioSample, error) {
			return []models.AudioSample{
				{Danceability: 0.2, Energy: 0.4, Valence: 0.6},
				{Danceability: 0.4, Energy: 0.6, Valence: 0.8},
			}, nil
		},
		RecommendationsFn: func(ctx context.Context, params services.RecommendationParams) (*services.RecommendationResult, error) {
			return &services.RecommendationResult{
				Tracks: []models.Track{
					{ID: "r1", ArtistID: "a1"},
					{ID: "r2", ArtistID: "x1"},
					{ID: "r3", ArtistID: "x2"},
				},
				ArtistSeedIDs: []string{"a1", "a2", "a3"},
				GenreSeeds:    []string{"shoegaze", "dream pop"},
			}, nil
		},
		SeveralArtistsFn: func(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
			out := make([]models.Artist, 0, len(artistIDs))
			for _, id := range artistIDs {
				out = append(out, models.Artist{ID: id, Name: "Artist " + id})
			}
			return out, nil
		},
	}
}

func TestDiscoveryEngineDiscover(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the full pipeline", func(t *testing.T) {
		provider := historyProvider()
		var captured services.RecommendationParams
		inner := provider.RecommendationsFn
		provider.RecommendationsFn = func(ctx context.Context, params services.RecommendationParams) (*services.RecommendationResult, error) {
			captured = params
			return inner(ctx, params)
		}

		discovery, err := NewDiscoveryEngine(provider, nil).Discover(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if want := []string{"shoegaze", "dream pop"}; !reflect.DeepEqual(captured.SeedGenres, want) {
			t.Errorf("seed genres = %v, want %v", captured.SeedGenres, want)
		}
		if want := []string{"a1", "a2", "a3"}; !reflect.DeepEqual(captured.SeedArtists, want) {
			t.Errorf("seed artists = %v, want %v", captured.SeedArtists, want)
		}
		if len(captured.SeedArtists)+len(captured.SeedGenres) > 5 {
			t.Errorf("seed budget exceeded: %d artists + %d genres",
				len(captured.SeedArtists), len(captured.SeedGenres))
		}

		if captured.Danceability.Min != 0.2 || captured.Danceability.Max != 0.4 {
			t.Errorf("danceability bounds = %+v", captured.Danceability)
		}
		if captured.Danceability.Target < captured.Danceability.Min || captured.Danceability.Target > captured.Danceability.Max {
			t.Errorf("target outside bounds: %+v", captured.Danceability)
		}
		if captured.MinPopularity != 0 || captured.TargetPopularity != 4 || captured.MaxPopularity != 8 {
			t.Errorf("popularity band = %d/%d/%d", captured.MinPopularity, captured.TargetPopularity, captured.MaxPopularity)
		}
		if captured.Limit != 20 {
			t.Errorf("limit = %d, want 20", captured.Limit)
		}

		// r1 belongs to a known top artist and must be filtered.
		if len(discovery.Tracks) != 2 || discovery.Tracks[0].ID != "r2" || discovery.Tracks[1].ID != "r3" {
			t.Errorf("tracks = %v, want [r2 r3]", discovery.Tracks)
		}
		if len(discovery.ArtistSeeds) != 3 || discovery.ArtistSeeds[0].Name != "Artist a1" {
			t.Errorf("artist seeds = %v", discovery.ArtistSeeds)
		}
		if want := []string{"shoegaze", "dream pop"}; !reflect.DeepEqual(discovery.GenreSeeds, want) {
			t.Errorf("genre seeds = %v, want %v", discovery.GenreSeeds, want)
		}
	})

	t.Run("no top artists is insufficient data", func(t *testing.T) {
		provider := historyProvider()
		provider.TopArtistsFn = func(ctx context.Context, limit int) ([]models.Artist, error) {
			return nil, nil
		}
		_, err := NewDiscoveryEngine(provider, nil).Discover(ctx)
		if !errors.Is(err, shared.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("no top tracks is insufficient data", func(t *testing.T) {
		provider := historyProvider()
		provider.TopTracksFn = func(ctx context.Context, limit int) ([]models.Track, error) {
			return []models.Track{}, nil
		}
		_, err := NewDiscoveryEngine(provider, nil).Discover(ctx)
		if !errors.Is(err, shared.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("empty feature sample is insufficient data", func(t *testing.T) {
		provider := historyProvider()
		provider.AudioFeaturesFn = func(ctx context.Context, trackIDs []string) ([]models.AudioSample, error) {
			return nil, nil
		}
		_, err := NewDiscoveryEngine(provider, nil).Discover(ctx)
		if !errors.Is(err, shared.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("provider errors propagate", func(t *testing.T) {
		provider := historyProvider()
		provider.RecommendationsFn = func(ctx context.Context, params services.RecommendationParams) (*services.RecommendationResult, error) {
			return nil, shared.ErrTokenExpired
		}
		_, err := NewDiscoveryEngine(provider, nil).Discover(ctx)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("no echoed artist seeds skips resolution", func(t *testing.T) {
		provider := historyProvider()
		provider.RecommendationsFn = func(ctx context.Context, params services.RecommendationParams) (*services.RecommendationResult, error) {
			return &services.RecommendationResult{
				Tracks: []models.Track{{ID: "r1", ArtistID: "x1"}},
			}, nil
		}
		provider.SeveralArtistsFn = func(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
			t.Error("SeveralArtists should not be called without seeds")
			return nil, nil
		}

		discovery, err := NewDiscoveryEngine(provider, nil).Discover(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(discovery.ArtistSeeds) != 0 {
			t.Errorf("artist seeds = %v, want none", discovery.ArtistSeeds)
		}
	})
}
