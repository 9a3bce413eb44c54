package tasks

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/services"
	"github.com/desertthunder/discojam/internal/shared"
)

// CoverRenderer produces the base64-encoded JPEG cover for a playlist title.
// Implemented by cover.Generator; tests substitute stubs.
type CoverRenderer interface {
	Base64JPEG(title string) (string, error)
}

// PlaylistCreator creates the next "Discovery Jam" volume for a user.
type PlaylistCreator struct {
	provider    services.Provider
	cover       CoverRenderer
	logger      *log.Logger
	suffix      string
	description string
}

// NewPlaylistCreator wires a creator around a token-bound provider.
//
// suffix is the series name embedded in playlist titles ("Discovery Jam");
// description is attached verbatim to every created playlist.
func NewPlaylistCreator(provider services.Provider, cover CoverRenderer, logger *log.Logger, suffix, description string) *PlaylistCreator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if suffix == "" {
		suffix = "Discovery Jam"
	}
	return &PlaylistCreator{
		provider:    provider,
		cover:       cover,
		logger:      logger,
		suffix:      suffix,
		description: description,
	}
}

// Create runs the linear creation sequence: pick the next volume number from
// the user's most recent playlist, create the playlist, add the tracks, and
// upload a rendered cover. Cover failures are logged and swallowed; the
// playlist is still reported as created.
func (c *PlaylistCreator) Create(ctx context.Context, user *models.User, trackIDs []string) (*models.CreatedPlaylist, error) {
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: missing user", shared.ErrInvalidInput)
	}
	if len(trackIDs) == 0 {
		return nil, fmt.Errorf("%w: no tracks to add", shared.ErrInsufficientData)
	}

	recent, err := c.provider.UserPlaylists(ctx, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: listing playlists: %v", shared.ErrPlaylistCreateFailed, err)
	}

	lastName := ""
	if len(recent) > 0 {
		lastName = recent[0].Name
	}
	name := NextPlaylistName(user.DisplayName, c.suffix, lastName)

	created, err := c.provider.CreatePlaylist(ctx, user.ID, name, c.description)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistCreateFailed, err)
	}
	if created.ID == "" {
		return nil, fmt.Errorf("%w: provider returned no playlist id", shared.ErrPlaylistCreateFailed)
	}

	if err := c.provider.AddTracks(ctx, created.ID, trackIDs); err != nil {
		return nil, fmt.Errorf("%w: adding tracks: %v", shared.ErrPlaylistCreateFailed, err)
	}

	c.uploadCover(ctx, created.ID, name)

	return &models.CreatedPlaylist{
		ID:          created.ID,
		Name:        name,
		ExternalURL: created.ExternalURL,
	}, nil
}

// uploadCover renders and uploads the cover image. Non-fatal on failure.
func (c *PlaylistCreator) uploadCover(ctx context.Context, playlistID, name string) {
	if c.cover == nil {
		return
	}

	encoded, err := c.cover.Base64JPEG(name)
	if err != nil {
		c.logger.Warn("cover render failed", "playlist", playlistID, "error", err)
		return
	}

	if err := c.provider.UploadPlaylistCover(ctx, playlistID, encoded); err != nil {
		c.logger.Warn("cover upload failed", "playlist", playlistID, "error", err)
	}
}

var volumePattern = regexp.MustCompile(`Vol:(\d+)$`)

// NextPlaylistName returns the title of the next volume in the series.
//
// When the most recent playlist is "<DisplayName>'s <suffix> Vol:NN", the
// next volume is NN+1; anything else restarts the series at volume 1.
// Numbers are zero-padded to two digits.
func NextPlaylistName(displayName, suffix, lastPlaylistName string) string {
	prefix := fmt.Sprintf("%s's %s ", displayName, suffix)
	volume := 1

	if len(lastPlaylistName) > len(prefix) && lastPlaylistName[:len(prefix)] == prefix {
		if m := volumePattern.FindStringSubmatch(lastPlaylistName); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				volume = n + 1
			}
		}
	}

	return fmt.Sprintf("%sVol:%02d", prefix, volume)
}
