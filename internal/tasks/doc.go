// Package tasks implements the discovery pipeline: listening-history
// reduction, recommendation requests, and playlist creation.
//
// # Pipeline Functions
//
// The data-processing steps are standalone functions with explicit inputs
// and outputs so each is unit-testable in isolation:
//
//   - [RankTags] : stable frequency ranking with dedup and truncation
//   - [SummarizeFeatures] : min/mean/max per audio-feature dimension
//   - [FilterKnownArtists] : drops candidate tracks by already-known artists
//
// # Discovery Engine
//
// [DiscoveryEngine.Discover] chains the steps for one request: top artists
// and tracks → ranked genre/artist seeds and a feature summary → a
// recommendations call biased toward low-popularity tracks → a filtered,
// partitioned [models.Discovery]. Nothing is cached between requests.
//
// # Playlist Creation
//
// [PlaylistCreator.Create] is a linear sequence with no retries: inspect the
// most recent playlist for a "Vol:NN" suffix, create the next volume, add
// the recommended tracks, then render and upload a cover image. A failed
// cover upload is logged and ignored; the playlist still counts as created.
//
// # Errors
//
// Empty inputs surface as [shared.ErrInsufficientData] and creation failures
// as [shared.ErrPlaylistCreateFailed]; handlers map both to a user-visible
// retry message.
package tasks
