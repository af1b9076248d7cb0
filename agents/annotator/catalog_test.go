package annotator

import (
	"context"
	"errors"
	"testing"

	"video-annotator/internal/models"
	"video-annotator/shared/config"
)

type fakePlaylists struct {
	videos []*models.Video
	err    error
	calls  int
}

func (f *fakePlaylists) PlaylistVideos(ctx context.Context, playlistID string, limit int) ([]*models.Video, error) {
	f.calls++
	return f.videos, f.err
}

func TestCatalogVideos(t *testing.T) {
	playlists := &fakePlaylists{videos: []*models.Video{{ID: "yt1"}, {ID: "clip.mp4"}}}
	c := NewCatalog(playlists, 0)

	col := config.CollectionConfig{
		ID:         "docks",
		PlaylistID: "PL1",
		Videos: []config.VideoConfig{
			{URL: "https://cdn.example.com/footage/clip.mp4?sig=1", DurationSeconds: 42.5},
			{Filename: "named.mp4", URL: "https://cdn.example.com/x", Title: "Named"},
		},
	}

	videos, err := c.Videos(context.Background(), col)
	if err != nil {
		t.Fatalf("Videos() error = %v", err)
	}

	var keys []string
	for _, v := range videos {
		keys = append(keys, v.Key())
	}
	want := []string{"clip.mp4", "named.mp4", "yt1"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	if videos[0].Title != "clip.mp4" || videos[0].DurationSeconds != 42 || videos[0].Metadata.DurationSeconds != 42.5 {
		t.Errorf("static video = %+v", videos[0])
	}
	if videos[1].Title != "Named" {
		t.Errorf("Title = %q, want Named", videos[1].Title)
	}
}

func TestCatalogPlaylistErrors(t *testing.T) {
	col := config.CollectionConfig{ID: "docks", PlaylistID: "PL1", Videos: []config.VideoConfig{{URL: "https://x/a.mp4"}}}

	videos, err := NewCatalog(nil, 0).Videos(context.Background(), col)
	if err == nil {
		t.Error("playlist without client should fail")
	}
	if len(videos) != 1 {
		t.Errorf("static videos should still be returned, got %d", len(videos))
	}

	_, err = NewCatalog(&fakePlaylists{err: errors.New("quota")}, 0).Videos(context.Background(), col)
	if err == nil {
		t.Error("playlist error should be returned")
	}
}
