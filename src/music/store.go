package music

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/unidecode"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEntry is returned when an insert collides with an
// existing record.
var ErrDuplicateEntry = errors.New("duplicate entry")

// PayloadFormat identifies the serialization format of a stored track
// payload.
type PayloadFormat int

// PayloadFormatJSON is the only format currently written.
const PayloadFormatJSON PayloadFormat = 1

// PayloadVersion identifies the schema version of a stored track payload.
type PayloadVersion struct {
	Major int
	Minor int
}

func (v PayloadVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// TrackPayload is the serialized body of a track entity as persisted by
// the store. The blob is compared byte-for-byte to detect unchanged
// replacements.
type TrackPayload struct {
	Format  PayloadFormat
	Version PayloadVersion
	Blob    []byte
}

// UpdateOutcome is the result kind of a revision-guarded update.
type UpdateOutcome int

const (
	// UpdateApplied means the revision check passed and the write landed.
	UpdateApplied UpdateOutcome = iota
	// UpdateConflict means another writer updated the entity first. The
	// caller must reload and recompute, never retry blindly.
	UpdateConflict
	// UpdateNotFound means no entity exists with the given UID.
	UpdateNotFound
)

// UpdateResult carries the outcome of a revision-guarded update together
// with the relevant revision: the new revision when applied, the actual
// stored revision on conflict.
type UpdateResult struct {
	Outcome UpdateOutcome
	Rev     Revision
}

// LocatedTrack is one entity found at a media source path, including its
// stored payload for byte-level comparison.
type LocatedTrack struct {
	Entity  TrackEntity
	Payload TrackPayload
}

// StringField names a phrase-searchable track field.
type StringField int

const (
	FieldTrackArtist StringField = iota
	FieldTrackTitle
	FieldAlbumArtist
	FieldAlbumTitle
	FieldSourceType
)

// NumericField names a numerically filterable track field.
type NumericField int

// FieldAudioDurationMs is the audio duration in milliseconds.
const FieldAudioDurationMs NumericField = iota

// Filter is a node of a field-qualified search filter tree. The variants
// form a closed set; the store renders them to a single query.
type Filter interface {
	isFilter()
}

// PhraseFilter matches a string field against normalized terms. Terms
// must be passed through NormalizeSearchTerm; the store applies the same
// normalization to the indexed columns.
type PhraseFilter struct {
	Field StringField
	Terms []string
}

// NormalizeSearchTerm folds a string to its searchable form: trimmed,
// transliterated to ASCII and lowercased. "Beyoncé " and "beyonce"
// normalize to the same term.
func NormalizeSearchTerm(s string) string {
	return strings.ToLower(unidecode.Unidecode(strings.TrimSpace(s)))
}

// NumericRangeFilter matches a numeric field within [Min, Max]. A nil
// bound is open; both nil matches rows where the field is unset.
type NumericRangeFilter struct {
	Field NumericField
	Min   *float64
	Max   *float64
}

// ReleaseDateFilter matches tracks released on the given date, or tracks
// without a release date when Equals is nil.
type ReleaseDateFilter struct {
	Equals *string
}

// ConditionFilter matches a boolean condition of the media source.
type ConditionFilter int

// SourceTracked matches tracks whose media source directory is tracked
// by the directory cache.
const SourceTracked ConditionFilter = iota

// AllFilter is the conjunction of its children.
type AllFilter []Filter

func (PhraseFilter) isFilter()       {}
func (NumericRangeFilter) isFilter() {}
func (ReleaseDateFilter) isFilter()  {}
func (ConditionFilter) isFilter()    {}
func (AllFilter) isFilter()          {}

// SortField names a sortable track property.
type SortField int

// SortCollectedAt orders by the time the media source was collected.
const SortCollectedAt SortField = iota

// SortDirection is the ordering direction.
type SortDirection int

const (
	SortAscending SortDirection = iota
	SortDescending
)

// SortOrder is one ordering term of a search.
type SortOrder struct {
	Field     SortField
	Direction SortDirection
}

// TrackStore is the revision-tracked entity store for tracks.
//
// UpdateTrack must perform the revision check and the write atomically,
// e.g. as a single conditional statement at the storage layer.
type TrackStore interface {
	// InsertTrack stores a new entity at its current revision.
	InsertTrack(ctx context.Context, collectionID string, entity TrackEntity, payload TrackPayload) error

	// UpdateTrack replaces the entity body iff the stored revision still
	// equals entity.Header.Rev, bumping the revision by one.
	UpdateTrack(ctx context.Context, entity TrackEntity, payload TrackPayload) (UpdateResult, error)

	// LoadTrack loads one entity and its payload by UID, or ErrNotFound.
	LoadTrack(ctx context.Context, uid string) (*TrackEntity, *TrackPayload, error)

	// LoadTracks loads entities by UID, best-effort: the returned set may
	// be smaller than requested and the order is unspecified.
	LoadTracks(ctx context.Context, uids []string) ([]TrackEntity, error)

	// LocateTracksByPath finds all entities whose media source path
	// equals the given path, scoped to the collection if non-empty.
	LocateTracksByPath(ctx context.Context, collectionID, path string) ([]LocatedTrack, error)

	// SearchTracks executes one bounded filtered search.
	SearchTracks(ctx context.Context, collectionID string, filter Filter, ordering []SortOrder, limit int) ([]TrackEntity, error)

	// CountTracks returns the number of tracks, scoped to the collection
	// if non-empty.
	CountTracks(ctx context.Context, collectionID string) (int, error)

	// DeleteTrack removes an entity by UID, or ErrNotFound.
	DeleteTrack(ctx context.Context, uid string) error
}

// CollectionStore manages collection records. Deleting a collection
// cascades to all directory entries and tracks below it.
type CollectionStore interface {
	AddCollection(ctx context.Context, collection *Collection) error
	GetCollection(ctx context.Context, id string) (*Collection, error)
	GetCollections(ctx context.Context) ([]*Collection, error)
	UpdateCollection(ctx context.Context, collection *Collection) error
	DeleteCollection(ctx context.Context, id string) error
}
