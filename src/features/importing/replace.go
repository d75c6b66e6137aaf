package importing

import (
	"bytes"
	"context"
	"fmt"

	"tonearm/src/music"
)

// ReplaceMode decides how a candidate track is reconciled against the
// entities already stored at its media source path.
type ReplaceMode int

const (
	// UpdateOrCreate updates the existing entity or creates a new one.
	UpdateOrCreate ReplaceMode = iota
	// UpdateOnly never creates a new entity.
	UpdateOnly
	// CreateOnly never updates an existing entity.
	CreateOnly
)

func (m ReplaceMode) String() string {
	switch m {
	case UpdateOrCreate:
		return "update-or-create"
	case UpdateOnly:
		return "update-only"
	case CreateOnly:
		return "create-only"
	}
	return fmt.Sprintf("ReplaceMode(%d)", int(m))
}

// ParseReplaceMode parses the string form produced by String.
func ParseReplaceMode(s string) (ReplaceMode, error) {
	switch s {
	case "update-or-create":
		return UpdateOrCreate, nil
	case "update-only":
		return UpdateOnly, nil
	case "create-only":
		return CreateOnly, nil
	}
	return 0, fmt.Errorf("unknown replace mode: %q", s)
}

// ReplaceResult is the closed outcome set of one replace operation.
// Conflicts are not errors: callers performing bulk replaces switch
// over all variants to build their batch summaries. Only technical
// failures surface as errors.
type ReplaceResult interface {
	isReplaceResult()
}

// ReplaceAmbiguous signals that more than one entity already references
// the media source path. This is a data-integrity signal, not retryable.
type ReplaceAmbiguous struct {
	Matches int
}

// ReplaceIncompatibleFormat signals that the stored payload was written
// in a different serialization format.
type ReplaceIncompatibleFormat struct {
	Format music.PayloadFormat
}

// ReplaceIncompatibleVersion signals that the stored payload was written
// with a different schema version.
type ReplaceIncompatibleVersion struct {
	Version music.PayloadVersion
}

// ReplaceNotCreated signals that the mode declined to write: no match in
// UpdateOnly mode, or an occupied path in CreateOnly mode.
type ReplaceNotCreated struct{}

// ReplaceUnchanged signals that the stored payload is byte-identical;
// no write was issued.
type ReplaceUnchanged struct {
	Header music.EntityHeader
}

// ReplaceCreated signals that a fresh entity was inserted at revision 0.
type ReplaceCreated struct {
	Header music.EntityHeader
}

// ReplaceUpdated signals that the existing entity was updated; the
// header carries the bumped revision.
type ReplaceUpdated struct {
	Header music.EntityHeader
}

func (ReplaceAmbiguous) isReplaceResult()           {}
func (ReplaceIncompatibleFormat) isReplaceResult()  {}
func (ReplaceIncompatibleVersion) isReplaceResult() {}
func (ReplaceNotCreated) isReplaceResult()          {}
func (ReplaceUnchanged) isReplaceResult()           {}
func (ReplaceCreated) isReplaceResult()             {}
func (ReplaceUpdated) isReplaceResult()             {}

// ReplaceTrack locates the entities stored at the track's media source
// path and updates or creates as the mode allows.
//
// The revision-guarded update makes the locate/update sequence safe
// without locks: a concurrent writer surfaces as an update conflict,
// which is escalated because the entity was located a moment earlier.
func ReplaceTrack(ctx context.Context, store music.TrackStore, collectionID string, mode ReplaceMode, track music.Track) (ReplaceResult, error) {
	if err := track.Validate(); err != nil {
		return nil, fmt.Errorf("invalid track: %w", err)
	}
	payload, err := music.MarshalTrackPayload(&track)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize track: %w", err)
	}

	located, err := store.LocateTracksByPath(ctx, collectionID, track.Source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to locate tracks by path: %w", err)
	}
	if len(located) > 1 {
		return ReplaceAmbiguous{Matches: len(located)}, nil
	}

	if len(located) == 0 {
		if mode == UpdateOnly {
			return ReplaceNotCreated{}, nil
		}
		header := music.NewEntityHeader()
		entity := music.TrackEntity{Header: header, Track: track}
		if err := store.InsertTrack(ctx, collectionID, entity, payload); err != nil {
			return nil, fmt.Errorf("failed to insert track: %w", err)
		}
		return ReplaceCreated{Header: header}, nil
	}

	existing := located[0]
	if mode == CreateOnly {
		if existing.Payload.Format == payload.Format &&
			existing.Payload.Version == payload.Version &&
			bytes.Equal(existing.Payload.Blob, payload.Blob) {
			return ReplaceUnchanged{Header: existing.Entity.Header}, nil
		}
		return ReplaceNotCreated{}, nil
	}
	if existing.Payload.Format != payload.Format {
		return ReplaceIncompatibleFormat{Format: existing.Payload.Format}, nil
	}
	if existing.Payload.Version != payload.Version {
		return ReplaceIncompatibleVersion{Version: existing.Payload.Version}, nil
	}
	if bytes.Equal(existing.Payload.Blob, payload.Blob) {
		return ReplaceUnchanged{Header: existing.Entity.Header}, nil
	}

	entity := music.TrackEntity{Header: existing.Entity.Header, Track: track}
	result, err := store.UpdateTrack(ctx, entity, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to update track: %w", err)
	}
	switch result.Outcome {
	case music.UpdateApplied:
		return ReplaceUpdated{Header: music.EntityHeader{UID: existing.Entity.Header.UID, Rev: result.Rev}}, nil
	case music.UpdateConflict:
		// The entity was located a moment ago with this revision;
		// losing the race here means a concurrent writer that must
		// not be masked.
		return nil, fmt.Errorf("track %s was concurrently updated to revision %d", existing.Entity.Header.UID, result.Rev)
	case music.UpdateNotFound:
		return nil, fmt.Errorf("track %s vanished between locate and update", existing.Entity.Header.UID)
	}
	return nil, fmt.Errorf("unexpected update outcome: %v", result.Outcome)
}
