package music

import (
	"encoding/json"
	"fmt"
	"time"
)

// PayloadVersionV1 is the schema version written for new payloads.
var PayloadVersionV1 = PayloadVersion{Major: 1, Minor: 0}

// trackPayloadV1 is the canonical serialized form of a track body.
// Field order and key names are part of the format: the replace engine
// compares blobs byte-for-byte to detect unchanged replacements.
type trackPayloadV1 struct {
	Title       string  `json:"title,omitempty"`
	Artist      string  `json:"artist,omitempty"`
	AlbumTitle  string  `json:"albumTitle,omitempty"`
	AlbumArtist string  `json:"albumArtist,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Path        string  `json:"path"`
	ContentType string  `json:"contentType"`
	CollectedAt string  `json:"collectedAt,omitempty"`
	Content     string  `json:"contentDigest,omitempty"`
	Artwork     string  `json:"artworkDigest,omitempty"`
	DurationMs  float64 `json:"durationMs,omitempty"`
	Channels    int     `json:"channels,omitempty"`
	SampleRate  int     `json:"sampleRateHz,omitempty"`
	Bitrate     int     `json:"bitrateBps,omitempty"`
	Flags       uint8   `json:"metadataFlags,omitempty"`
}

// MarshalTrackPayload serializes a track body into its persisted form.
func MarshalTrackPayload(track *Track) (TrackPayload, error) {
	body := trackPayloadV1{
		Title:       track.Title,
		Artist:      track.Artist,
		AlbumTitle:  track.AlbumTitle,
		AlbumArtist: track.AlbumArtist,
		ReleaseDate: track.ReleaseDate,
		Path:        track.Source.Path,
		ContentType: track.Source.ContentType,
		DurationMs:  track.Source.Audio.DurationMs,
		Channels:    track.Source.Audio.Channels,
		SampleRate:  track.Source.Audio.SampleRateHz,
		Bitrate:     track.Source.Audio.BitrateBps,
		Flags:       uint8(track.Source.MetadataFlags),
	}
	if !track.Source.CollectedAt.IsZero() {
		body.CollectedAt = track.Source.CollectedAt.UTC().Format(time.RFC3339)
	}
	if !track.Source.ContentDigest.IsZero() {
		body.Content = track.Source.ContentDigest.String()
	}
	if !track.Source.ArtworkDigest.IsZero() {
		body.Artwork = track.Source.ArtworkDigest.String()
	}
	blob, err := json.Marshal(body)
	if err != nil {
		return TrackPayload{}, err
	}
	return TrackPayload{
		Format:  PayloadFormatJSON,
		Version: PayloadVersionV1,
		Blob:    blob,
	}, nil
}

// UnmarshalTrackPayload decodes a persisted payload back into a track
// body, rejecting unknown formats and schema versions.
func UnmarshalTrackPayload(payload TrackPayload) (*Track, error) {
	if payload.Format != PayloadFormatJSON {
		return nil, fmt.Errorf("unsupported payload format: %d", payload.Format)
	}
	if payload.Version.Major != PayloadVersionV1.Major {
		return nil, fmt.Errorf("unsupported payload version: %s", payload.Version)
	}
	var body trackPayloadV1
	if err := json.Unmarshal(payload.Blob, &body); err != nil {
		return nil, fmt.Errorf("failed to decode track payload: %w", err)
	}
	track := &Track{
		Title:       body.Title,
		Artist:      body.Artist,
		AlbumTitle:  body.AlbumTitle,
		AlbumArtist: body.AlbumArtist,
		ReleaseDate: body.ReleaseDate,
		Source: MediaSource{
			Path:        body.Path,
			ContentType: body.ContentType,
			Audio: AudioContent{
				DurationMs:   body.DurationMs,
				Channels:     body.Channels,
				SampleRateHz: body.SampleRate,
				BitrateBps:   body.Bitrate,
			},
			MetadataFlags: ContentMetadataFlags(body.Flags),
		},
	}
	if body.CollectedAt != "" {
		collectedAt, err := time.Parse(time.RFC3339, body.CollectedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid collectedAt in payload: %w", err)
		}
		track.Source.CollectedAt = collectedAt
	}
	if body.Content != "" {
		digest, err := ParseDigest(body.Content)
		if err != nil {
			return nil, fmt.Errorf("invalid content digest in payload: %w", err)
		}
		track.Source.ContentDigest = digest
	}
	if body.Artwork != "" {
		digest, err := ParseDigest(body.Artwork)
		if err != nil {
			return nil, fmt.Errorf("invalid artwork digest in payload: %w", err)
		}
		track.Source.ArtworkDigest = digest
	}
	return track, nil
}
