package tasks

import (
	"fmt"
	"sort"

	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/shared"
)

// RankTags reduces an unordered sequence of tags (genre strings or artist
// ids, repeats allowed) to an ordered, deduplicated slice of at most n
// entries, ranked by descending frequency. Ties keep the relative order of
// first appearance in the input.
func RankTags(tags []string, n int) []string {
	if n <= 0 || len(tags) == 0 {
		return nil
	}

	counts := make(map[string]int, len(tags))
	firstSeen := make(map[string]int, len(tags))
	order := make([]string, 0, len(tags))

	for i, tag := range tags {
		if _, seen := counts[tag]; !seen {
			firstSeen[tag] = i
			order = append(order, tag)
		}
		counts[tag]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		ci, cj := counts[order[i]], counts[order[j]]
		if ci != cj {
			return ci > cj
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// SummarizeFeatures computes min/mean/max for each audio-feature dimension
// across the sampled tracks. An empty sample is an error, not a panic.
func SummarizeFeatures(samples []models.AudioSample) (models.FeatureSummary, error) {
	if len(samples) == 0 {
		return models.FeatureSummary{}, fmt.Errorf("%w: no audio features to summarize", shared.ErrInsufficientData)
	}

	dance := make([]float64, len(samples))
	energy := make([]float64, len(samples))
	valence := make([]float64, len(samples))
	for i, s := range samples {
		dance[i] = s.Danceability
		energy[i] = s.Energy
		valence[i] = s.Valence
	}

	return models.FeatureSummary{
		Danceability: summarize(dance),
		Energy:       summarize(energy),
		Valence:      summarize(valence),
	}, nil
}

func summarize(values []float64) models.Stats {
	stats := models.Stats{Min: values[0], Max: values[0]}
	sum := 0.0
	for _, v := range values {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
		sum += v
	}
	stats.Mean = sum / float64(len(values))
	return stats
}

// FilterKnownArtists drops tracks whose primary artist id appears in the
// known set, so recommendations only surface artists the user has not
// already been listening to. Input order is preserved.
func FilterKnownArtists(tracks []models.Track, knownArtistIDs map[string]bool) []models.Track {
	kept := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if knownArtistIDs[t.ArtistID] {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}
