package annotator

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"video-annotator/internal/models"
	"video-annotator/shared/config"
)

// VideoSource lists the videos of a collection.
type VideoSource interface {
	Videos(ctx context.Context, col config.CollectionConfig) ([]*models.Video, error)
}

// PlaylistReader is implemented by the YouTube client.
type PlaylistReader interface {
	PlaylistVideos(ctx context.Context, playlistID string, limit int) ([]*models.Video, error)
}

// Catalog combines a collection's static video list with its playlist.
type Catalog struct {
	playlists PlaylistReader
	limit     int
}

// NewCatalog builds a catalog. playlists may be nil when no collection
// uses a playlist.
func NewCatalog(playlists PlaylistReader, limit int) *Catalog {
	return &Catalog{playlists: playlists, limit: limit}
}

// Videos returns static videos first, then playlist videos, without
// duplicate keys.
func (c *Catalog) Videos(ctx context.Context, col config.CollectionConfig) ([]*models.Video, error) {
	var videos []*models.Video
	seen := make(map[string]bool)
	add := func(v *models.Video) {
		if seen[v.Key()] {
			return
		}
		seen[v.Key()] = true
		videos = append(videos, v)
	}

	for _, vc := range col.Videos {
		add(videoFromConfig(vc))
	}

	if col.PlaylistID != "" {
		if c.playlists == nil {
			return videos, fmt.Errorf("collection %s uses playlist %s but no YouTube client is configured", col.ID, col.PlaylistID)
		}
		fromPlaylist, err := c.playlists.PlaylistVideos(ctx, col.PlaylistID, c.limit)
		if err != nil {
			return videos, fmt.Errorf("failed to read playlist for collection %s: %w", col.ID, err)
		}
		for _, v := range fromPlaylist {
			add(v)
		}
	}

	return videos, nil
}

func videoFromConfig(vc config.VideoConfig) *models.Video {
	filename := strings.TrimSpace(vc.Filename)
	if filename == "" {
		filename = filenameFromURL(vc.URL)
	}
	title := vc.Title
	if title == "" {
		title = filename
	}

	return &models.Video{
		ID:              filename,
		Title:           title,
		URL:             vc.URL,
		DurationSeconds: int(vc.DurationSeconds),
		Metadata: &models.VideoMetadata{
			Filename:        filename,
			DurationSeconds: vc.DurationSeconds,
		},
	}
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return raw
	}
	return path.Base(u.Path)
}
