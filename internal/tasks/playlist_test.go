package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/discojam/internal/models"
	"github.com/desertthunder/discojam/internal/shared"
	tu "github.com/desertthunder/discojam/internal/testing"
)

func TestNextPlaylistName(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		suffix      string
		last        string
		want        string
	}{
		{
			name:        "no prior playlist starts the series",
			displayName: "Jane",
			suffix:      "Discovery Jam",
			last:        "",
			want:        "Jane's Discovery Jam Vol:01",
		},
		{
			name:        "increments the most recent volume",
			displayName: "Jane",
			suffix:      "Discovery Jam",
			last:        "Jane's Discovery Jam Vol:01",
			want:        "Jane's Discovery Jam Vol:02",
		},
		{
			name:        "carries into double digits",
			displayName: "Jane",
			suffix:      "Discovery Jam",
			last:        "Jane's Discovery Jam Vol:09",
			want:        "Jane's Discovery Jam Vol:10",
		},
		{
			name:        "three digits drop the padding",
			displayName: "Jane",
			suffix:      "Discovery Jam",
			last:        "Jane's Discovery Jam Vol:99",
			want:        "Jane's Discovery Jam Vol:100",
		},
		{
			name:        "unrelated playlist restarts at one",
			displayName: "Jane",
			suffix:      "Discovery Jam",
			last:        "Road Trip Mix",
			want:        "Jane's Discovery Jam Vol:01",
		},
		{
			name:        "someone else's series restarts at one",
			displayName: "Jane",
			suffix:      "Discovery Jam",
			last:        "Sam's Discovery Jam Vol:07",
			want:        "Jane's Discovery Jam Vol:01",
		},
		{
			name:        "matching prefix without volume restarts at one",
			displayName: "Jane",
			suffix:      "Discovery Jam",
			last:        "Jane's Discovery Jam (archived)",
			want:        "Jane's Discovery Jam Vol:01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextPlaylistName(tt.displayName, tt.suffix, tt.last)
			if got != tt.want {
				t.Errorf("NextPlaylistName(%q, %q, %q) = %q, want %q",
					tt.displayName, tt.suffix, tt.last, got, tt.want)
			}
		})
	}
}

type stubCover struct {
	encoded string
	err     error
	calls   int
}

func (s *stubCover) Base64JPEG(title string) (string, error) {
	s.calls++
	return s.encoded, s.err
}

func TestPlaylistCreatorCreate(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "user1", DisplayName: "Jane"}
	trackIDs := []string{"t1", "t2", "t3"}

	t.Run("creates the next volume and adds tracks", func(t *testing.T) {
		var createdName string
		var addedTo string
		var addedTracks []string
		var uploadedTo string

		provider := &tu.MockProvider{
			UserPlaylistsFn: func(ctx context.Context, limit, offset int) ([]models.Playlist, error) {
				if limit != 1 || offset != 0 {
					t.Errorf("expected most recent playlist only, got limit=%d offset=%d", limit, offset)
				}
				return []models.Playlist{{ID: "p0", Name: "Jane's Discovery Jam Vol:03"}}, nil
			},
			CreatePlaylistFn: func(ctx context.Context, userID, name, description string) (*models.Playlist, error) {
				if userID != "user1" {
					t.Errorf("expected user1, got %q", userID)
				}
				createdName = name
				return &models.Playlist{ID: "p1", Name: name, ExternalURL: "https://open.spotify.com/playlist/p1"}, nil
			},
			AddTracksFn: func(ctx context.Context, playlistID string, ids []string) error {
				addedTo = playlistID
				addedTracks = ids
				return nil
			},
			UploadCoverFn: func(ctx context.Context, playlistID, jpegBase64 string) error {
				uploadedTo = playlistID
				if jpegBase64 != "fake-jpeg" {
					t.Errorf("expected rendered cover bytes, got %q", jpegBase64)
				}
				return nil
			},
		}
		cover := &stubCover{encoded: "fake-jpeg"}

		creator := NewPlaylistCreator(provider, cover, nil, "Discovery Jam", "Fresh finds")
		created, err := creator.Create(ctx, user, trackIDs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if createdName != "Jane's Discovery Jam Vol:04" {
			t.Errorf("created name = %q, want Vol:04", createdName)
		}
		if created.ID != "p1" || created.Name != createdName {
			t.Errorf("unexpected result: %+v", created)
		}
		if created.ExternalURL != "https://open.spotify.com/playlist/p1" {
			t.Errorf("external url = %q", created.ExternalURL)
		}
		if addedTo != "p1" || len(addedTracks) != 3 {
			t.Errorf("tracks added to %q (%d tracks), want p1 with 3", addedTo, len(addedTracks))
		}
		if uploadedTo != "p1" {
			t.Errorf("cover uploaded to %q, want p1", uploadedTo)
		}
	})

	t.Run("no prior playlists starts at volume one", func(t *testing.T) {
		var createdName string
		provider := &tu.MockProvider{
			CreatePlaylistFn: func(ctx context.Context, userID, name, description string) (*models.Playlist, error) {
				createdName = name
				return &models.Playlist{ID: "p1", Name: name}, nil
			},
		}

		creator := NewPlaylistCreator(provider, nil, nil, "Discovery Jam", "")
		if _, err := creator.Create(ctx, user, trackIDs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if createdName != "Jane's Discovery Jam Vol:01" {
			t.Errorf("created name = %q, want Vol:01", createdName)
		}
	})

	t.Run("empty track list is insufficient data", func(t *testing.T) {
		creator := NewPlaylistCreator(&tu.MockProvider{}, nil, nil, "Discovery Jam", "")
		_, err := creator.Create(ctx, user, nil)
		if !errors.Is(err, shared.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("missing user is invalid input", func(t *testing.T) {
		creator := NewPlaylistCreator(&tu.MockProvider{}, nil, nil, "Discovery Jam", "")
		_, err := creator.Create(ctx, nil, trackIDs)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("create failure maps to ErrPlaylistCreateFailed", func(t *testing.T) {
		provider := &tu.MockProvider{
			CreatePlaylistFn: func(ctx context.Context, userID, name, description string) (*models.Playlist, error) {
				return nil, errors.New("boom")
			},
		}
		creator := NewPlaylistCreator(provider, nil, nil, "Discovery Jam", "")
		_, err := creator.Create(ctx, user, trackIDs)
		if !errors.Is(err, shared.ErrPlaylistCreateFailed) {
			t.Errorf("expected ErrPlaylistCreateFailed, got %v", err)
		}
	})

	t.Run("missing playlist id maps to ErrPlaylistCreateFailed", func(t *testing.T) {
		provider := &tu.MockProvider{
			CreatePlaylistFn: func(ctx context.Context, userID, name, description string) (*models.Playlist, error) {
				return &models.Playlist{}, nil
			},
		}
		creator := NewPlaylistCreator(provider, nil, nil, "Discovery Jam", "")
		_, err := creator.Create(ctx, user, trackIDs)
		if !errors.Is(err, shared.ErrPlaylistCreateFailed) {
			t.Errorf("expected ErrPlaylistCreateFailed, got %v", err)
		}
	})

	t.Run("add tracks failure maps to ErrPlaylistCreateFailed", func(t *testing.T) {
		provider := &tu.MockProvider{
			AddTracksFn: func(ctx context.Context, playlistID string, ids []string) error {
				return errors.New("boom")
			},
		}
		creator := NewPlaylistCreator(provider, nil, nil, "Discovery Jam", "")
		_, err := creator.Create(ctx, user, trackIDs)
		if !errors.Is(err, shared.ErrPlaylistCreateFailed) {
			t.Errorf("expected ErrPlaylistCreateFailed, got %v", err)
		}
	})

	t.Run("cover failures are non-fatal", func(t *testing.T) {
		provider := &tu.MockProvider{
			UploadCoverFn: func(ctx context.Context, playlistID, jpegBase64 string) error {
				return errors.New("upload rejected")
			},
		}
		cover := &stubCover{err: errors.New("render failed")}

		creator := NewPlaylistCreator(provider, cover, nil, "Discovery Jam", "")
		created, err := creator.Create(ctx, user, trackIDs)
		if err != nil {
			t.Fatalf("expected success despite cover failure, got %v", err)
		}
		if created.Name != "Jane's Discovery Jam Vol:01" {
			t.Errorf("unexpected name %q", created.Name)
		}
	})

	t.Run("nil cover renderer skips upload", func(t *testing.T) {
		uploads := 0
		provider := &tu.MockProvider{
			UploadCoverFn: func(ctx context.Context, playlistID, jpegBase64 string) error {
				uploads++
				return nil
			},
		}
		creator := NewPlaylistCreator(provider, nil, nil, "Discovery Jam", "")
		if _, err := creator.Create(ctx, user, trackIDs); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if uploads != 0 {
			t.Errorf("expected no cover upload, got %d", uploads)
		}
	})
}
