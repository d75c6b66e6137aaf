package music

import (
	"fmt"
	"strings"
	"time"
)

// ReleaseDateLayout is the canonical layout of Track.ReleaseDate.
const ReleaseDateLayout = "2006-01-02"

// Track represents a single audio file.
type Track struct {
	Title       string
	Artist      string
	AlbumTitle  string
	AlbumArtist string
	ReleaseDate string // empty if unknown, otherwise ReleaseDateLayout
	Source      MediaSource
}

// TrackArtist returns the trimmed track artist, falling back to the
// album artist if the track has none.
func (t *Track) TrackArtist() string {
	if artist := strings.TrimSpace(t.Artist); artist != "" {
		return artist
	}
	return strings.TrimSpace(t.AlbumArtist)
}

// Validate validates the track fields.
func (t *Track) Validate() error {
	if strings.TrimSpace(t.Source.Path) == "" {
		return fmt.Errorf("track media source path cannot be empty")
	}
	if len(t.Source.Path) > 1000 {
		return fmt.Errorf("track media source path cannot exceed 1000 characters, got %d: path -> %s", len(t.Source.Path), t.Source.Path)
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title cannot exceed 500 characters, got %d: title -> %s", len(t.Title), t.Title)
	}
	if t.Source.ContentType == "" {
		return fmt.Errorf("track media source content type cannot be empty: path -> %s", t.Source.Path)
	}
	if t.Source.Audio.DurationMs < 0 {
		return fmt.Errorf("duration cannot be negative, got %f", t.Source.Audio.DurationMs)
	}
	if t.Source.Audio.Channels < 0 {
		return fmt.Errorf("channel count cannot be negative, got %d", t.Source.Audio.Channels)
	}
	if !t.Source.MetadataFlags.IsValid() {
		return fmt.Errorf("invalid content metadata flags: %08b", t.Source.MetadataFlags)
	}
	if t.ReleaseDate != "" {
		if _, err := time.Parse(ReleaseDateLayout, t.ReleaseDate); err != nil {
			return fmt.Errorf("invalid release date %q: %w", t.ReleaseDate, err)
		}
	}
	return nil
}
