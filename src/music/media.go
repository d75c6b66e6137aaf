package music

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Digest is a fixed-size content hash used as a change-detection key.
// Two digests compare equal iff the hashed content was identical.
type Digest [32]byte

// DigestFromBytes copies a raw 32-byte hash into a Digest.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != len(d) {
		return d, fmt.Errorf("invalid digest length: expected %d bytes, got %d", len(d), len(b))
	}
	copy(d[:], b)
	return d, nil
}

// ParseDigest decodes a hex-encoded digest string.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid digest encoding: %w", err)
	}
	return DigestFromBytes(b)
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is the all-zero value, i.e. unset.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ContentMetadataFlags describes the trust level of the decoded audio
// properties of a media source. It gates whether a re-import is allowed
// to overwrite them.
type ContentMetadataFlags uint8

const (
	// MetadataUnreliable marks values parsed from file tags, which are
	// often imprecise. This is the default.
	MetadataUnreliable ContentMetadataFlags = 0b0000

	// MetadataReliable marks values reported by a decoder that actually
	// opened the audio stream.
	MetadataReliable ContentMetadataFlags = 0b0001

	// MetadataLocked marks values pinned by the user. Locked metadata is
	// never updated automatically. While locked the stale flag is never set.
	MetadataLocked ContentMetadataFlags = 0b0010

	// MetadataStale marks values that should be re-imported from a more
	// reliable source.
	MetadataStale ContentMetadataFlags = 0b0100

	metadataFlagsAll = MetadataReliable | MetadataLocked | MetadataStale
)

// IsValid reports whether only known flag bits are set.
func (f ContentMetadataFlags) IsValid() bool {
	return f&^metadataFlagsAll == 0
}

func (f ContentMetadataFlags) IsUnreliable() bool {
	return f&(MetadataReliable|MetadataLocked) == 0
}

func (f ContentMetadataFlags) IsReliable() bool {
	return f&MetadataReliable != 0
}

func (f ContentMetadataFlags) IsLocked() bool {
	return f&MetadataLocked != 0
}

func (f ContentMetadataFlags) IsStale() bool {
	return f&MetadataStale != 0
}

// Update transitions the flags towards the given target state. The target
// must not be marked as stale.
//
// If the target state is at least as reliable as the current state the
// target is established and Update returns true: the caller may replace
// the metadata. Otherwise the current state is preserved and Update
// returns false; the stale flag is set (unless locked) so that a later
// import from a more reliable source can pick the entry up again.
func (f *ContentMetadataFlags) Update(target ContentMetadataFlags) bool {
	if (*f&^MetadataStale) == target || target.IsLocked() || (!f.IsLocked() && target.IsReliable()) {
		*f = target
		return true
	}
	// Metadata does not get stale while locked.
	if !f.IsLocked() {
		*f |= MetadataStale
	}
	return false
}

// AudioContent holds the decoded audio properties of a media source.
type AudioContent struct {
	DurationMs   float64
	Channels     int
	SampleRateHz int
	BitrateBps   int
}

// MediaSource describes where a track's content lives on disk and what
// has been learned about it.
type MediaSource struct {
	Path          string
	ContentType   string
	CollectedAt   time.Time
	ContentDigest Digest
	ArtworkDigest Digest
	Audio         AudioContent
	MetadataFlags ContentMetadataFlags
}
