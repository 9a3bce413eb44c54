package tasks

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/shared"
)

func TestRankTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		n    int
		want []string
	}{
		{
			name: "ranks by descending frequency",
			tags: []string{"rock", "pop", "rock", "jazz", "pop", "rock"},
			n:    5,
			want: []string{"rock", "pop", "jazz"},
		},
		{
			name: "ties keep first-appearance order",
			tags: []string{"ambient", "techno", "ambient", "techno"},
			n:    5,
			want: []string{"ambient", "techno"},
		},
		{
			name: "truncates to n",
			tags: []string{"a", "a", "a", "b", "b", "c", "d"},
			n:    2,
			want: []string{"a", "b"},
		},
		{
			name: "empty input",
			tags: nil,
			n:    3,
			want: nil,
		},
		{
			name: "non-positive n",
			tags: []string{"rock"},
			n:    0,
			want: nil,
		},
		{
			name: "fewer distinct tags than n",
			tags: []string{"indie"},
			n:    5,
			want: []string{"indie"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankTags(tt.tags, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RankTags(%v, %d) = %v, want %v", tt.tags, tt.n, got, tt.want)
			}
		})
	}

	t.Run("does not mutate input", func(t *testing.T) {
		tags := []string{"b", "a", "a"}
		RankTags(tags, 2)
		if !reflect.DeepEqual(tags, []string{"b", "a", "a"}) {
			t.Errorf("input mutated: %v", tags)
		}
	})
}

func TestSummarizeFeatures(t *testing.T) {
	t.Run("computes min mean max per dimension", func(t *testing.T) {
		samples := []models.AudioSample{
			{Danceability: 0.2, Energy: 0.8, Valence: 0.5},
			{Danceability: 0.5, Energy: 0.2, Valence: 0.5},
			{Danceability: 0.8, Energy: 0.5, Valence: 0.5},
		}

		summary, err := SummarizeFeatures(samples)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := models.Stats{Min: 0.2, Mean: 0.5, Max: 0.8}
		if !statsClose(summary.Danceability, want) {
			t.Errorf("danceability = %+v, want %+v", summary.Danceability, want)
		}
		if !statsClose(summary.Energy, want) {
			t.Errorf("energy = %+v, want %+v", summary.Energy, want)
		}
		constant := models.Stats{Min: 0.5, Mean: 0.5, Max: 0.5}
		if !statsClose(summary.Valence, constant) {
			t.Errorf("valence = %+v, want %+v", summary.Valence, constant)
		}
	})

	t.Run("single sample collapses to one value", func(t *testing.T) {
		summary, err := SummarizeFeatures([]models.AudioSample{{Danceability: 0.7, Energy: 0.1, Valence: 0.9}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Danceability.Min != 0.7 || summary.Danceability.Mean != 0.7 || summary.Danceability.Max != 0.7 {
			t.Errorf("danceability = %+v, want all 0.7", summary.Danceability)
		}
	})

	t.Run("ordering invariant", func(t *testing.T) {
		samples := []models.AudioSample{
			{Danceability: 0.91, Energy: 0.13, Valence: 0.42},
			{Danceability: 0.04, Energy: 0.77, Valence: 0.42},
			{Danceability: 0.33, Energy: 0.58, Valence: 0.99},
		}
		summary, err := SummarizeFeatures(samples)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, s := range []models.Stats{summary.Danceability, summary.Energy, summary.Valence} {
			if s.Min > s.Mean || s.Mean > s.Max {
				t.Errorf("expected min <= mean <= max, got %+v", s)
			}
		}
	})

	t.Run("empty sample is an error", func(t *testing.T) {
		_, err := SummarizeFeatures(nil)
		if !errors.Is(err, shared.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})
}

func statsClose(got, want models.Stats) bool {
	const eps = 1e-9
	return math.Abs(got.Min-want.Min) < eps &&
		math.Abs(got.Mean-want.Mean) < eps &&
		math.Abs(got.Max-want.Max) < eps
}

func TestFilterKnownArtists(t *testing.T) {
	tracks := []models.Track{
		{ID: "t1", ArtistID: "a1"},
		{ID: "t2", ArtistID: "a3"},
		{ID: "t3", ArtistID: "a4"},
		{ID: "t4", ArtistID: "a2"},
	}

	t.Run("drops tracks by known artists", func(t *testing.T) {
		known := map[string]bool{"a1": true, "a2": true}
		got := FilterKnownArtists(tracks, known)

		if len(got) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(got))
		}
		if got[0].ID != "t2" || got[1].ID != "t3" {
			t.Errorf("expected [t2 t3] in order, got %v", got)
		}
	})

	t.Run("empty known set keeps everything", func(t *testing.T) {
		got := FilterKnownArtists(tracks, map[string]bool{})
		if len(got) != len(tracks) {
			t.Errorf("expected %d tracks, got %d", len(tracks), len(got))
		}
	})

	t.Run("all known yields empty non-nil slice", func(t *testing.T) {
		known := map[string]bool{"a1": true, "a2": true, "a3": true, "a4": true}
		got := FilterKnownArtists(tracks, known)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty slice, got %v", got)
		}
	})
}
