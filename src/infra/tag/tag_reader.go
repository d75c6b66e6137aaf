package tag

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"

	"tonearm/src/features/importing"
	"tonearm/src/infra/artwork"
	"tonearm/src/music"
)

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
}

// Reader decodes file tags into a Track value. It uses the generic
// dhowden/tag reader for the common fields and format-specific readers
// for what that library does not expose: release dates, declared
// durations and embedded artwork.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() importing.TagReader {
	return &Reader{}
}

// ReadFileTags reads the metadata of one audio file.
//
// Audio properties stay flagged unreliable unless they come from the
// FLAC stream info block, which describes the actual encoded signal.
func (r *Reader) ReadFileTags(ctx context.Context, filePath string) (*music.Track, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", filePath, err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	track := &music.Track{
		Title:       tags.Title(),
		Artist:      tags.Artist(),
		AlbumTitle:  tags.Album(),
		AlbumArtist: tags.AlbumArtist(),
		ReleaseDate: releaseDateFromYear(tags.Year()),
		Source: music.MediaSource{
			Path:          filePath,
			ContentType:   contentTypes[ext],
			MetadataFlags: music.MetadataUnreliable,
		},
	}

	digest, err := hashContent(file)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", filePath, err)
	}
	track.Source.ContentDigest = digest

	var picture []byte
	switch ext {
	case ".mp3":
		picture = r.readMP3Extras(filePath, track)
	case ".flac":
		picture = r.readFLACExtras(filePath, track)
	}
	if picture == nil {
		if pic := tags.Picture(); pic != nil {
			picture = pic.Data
		}
	}
	r.digestArtwork(picture, track)

	return track, nil
}

// hashContent digests the whole file from the start.
func hashContent(file *os.File) (music.Digest, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return music.Digest{}, err
	}
	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return music.Digest{}, err
	}
	return music.Digest(hasher.Sum(nil)), nil
}

// readMP3Extras reads the id3v2 frames the generic reader misses and
// returns the embedded front cover, if any.
func (r *Reader) readMP3Extras(filePath string, track *music.Track) []byte {
	id3, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		slog.Debug("No id3v2 tag", "path", filePath, "error", err)
		return nil
	}
	defer id3.Close()

	// TPE2 is the canonical album artist frame.
	if albumArtist := id3.GetTextFrame("TPE2").Text; albumArtist != "" {
		track.AlbumArtist = albumArtist
	}
	// TDRC carries a full recording date in id3v2.4.
	if date := parseReleaseDate(id3.GetTextFrame("TDRC").Text); date != "" {
		track.ReleaseDate = date
	}
	// TLEN declares the duration in milliseconds. It is written by the
	// tagger, not measured, so the flags stay unreliable.
	if length := id3.GetTextFrame("TLEN").Text; length != "" {
		if ms, err := strconv.ParseFloat(length, 64); err == nil && ms > 0 {
			track.Source.Audio.DurationMs = ms
		}
	}

	for _, frame := range id3.GetFrames(id3.CommonID("Attached picture")) {
		if pic, ok := frame.(id3v2.PictureFrame); ok && len(pic.Picture) > 0 {
			return pic.Picture
		}
	}
	return nil
}

// readFLACExtras reads the stream info and vorbis comment blocks and
// returns the embedded front cover, if any.
func (r *Reader) readFLACExtras(filePath string, track *music.Track) []byte {
	flacFile, err := goflac.ParseFile(filePath)
	if err != nil {
		slog.Debug("Failed to parse FLAC metadata", "path", filePath, "error", err)
		return nil
	}

	if info, err := flacFile.GetStreamInfo(); err == nil && info.SampleRate > 0 {
		track.Source.Audio.SampleRateHz = info.SampleRate
		track.Source.Audio.Channels = info.ChannelCount
		track.Source.Audio.DurationMs = float64(info.SampleCount) / float64(info.SampleRate) * 1000
		if stat, err := os.Stat(filePath); err == nil && track.Source.Audio.DurationMs > 0 {
			track.Source.Audio.BitrateBps = int(float64(stat.Size()*8) / (track.Source.Audio.DurationMs / 1000))
		}
		// Stream info describes the encoded signal itself.
		track.Source.MetadataFlags = music.MetadataReliable
	}

	var picture []byte
	for _, meta := range flacFile.Meta {
		switch meta.Type {
		case goflac.VorbisComment:
			comment, err := flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				continue
			}
			if dates, err := comment.Get(flacvorbis.FIELD_DATE); err == nil && len(dates) > 0 {
				if date := parseReleaseDate(dates[0]); date != "" {
					track.ReleaseDate = date
				}
			}
		case goflac.Picture:
			if picture != nil {
				continue
			}
			if pic, err := flacpicture.ParseFromMetaDataBlock(*meta); err == nil && len(pic.ImageData) > 0 {
				picture = pic.ImageData
			}
		}
	}
	return picture
}

// digestArtwork analyzes the embedded cover and records its digest.
// Undecodable artwork is logged and skipped, never a hard failure.
func (r *Reader) digestArtwork(picture []byte, track *music.Track) {
	if len(picture) == 0 {
		return
	}
	art, err := artwork.Analyze(picture)
	if err != nil {
		slog.Debug("Skipping undecodable embedded artwork", "path", track.Source.Path, "error", err)
		return
	}
	track.Source.ArtworkDigest = art.Digest
	slog.Debug("Analyzed embedded artwork",
		"path", track.Source.Path,
		"mediaType", art.MediaType,
		"size", fmt.Sprintf("%dx%d", art.Width, art.Height),
	)
}

// parseReleaseDate canonicalizes a tag date value: either a full date or
// a bare year, anything else is discarded.
func parseReleaseDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= len(music.ReleaseDateLayout) {
		if date, err := time.Parse(music.ReleaseDateLayout, value[:len(music.ReleaseDateLayout)]); err == nil {
			return date.Format(music.ReleaseDateLayout)
		}
	}
	if year, err := strconv.Atoi(value); err == nil {
		return releaseDateFromYear(year)
	}
	return ""
}

// releaseDateFromYear maps a bare year to January 1st of that year.
func releaseDateFromYear(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf("%04d-01-01", year)
}
