package music

import (
	"github.com/google/uuid"
)

// Revision is a monotonically increasing version counter on an entity,
// used for optimistic concurrency. It increases by exactly one on every
// successful mutation.
type Revision uint64

// Next returns the revision a successful mutation must store.
func (r Revision) Next() Revision {
	return r + 1
}

// EntityHeader identifies one revision of an entity.
type EntityHeader struct {
	UID string
	Rev Revision
}

// NewEntityHeader allocates a fresh identity at revision zero.
func NewEntityHeader() EntityHeader {
	return EntityHeader{UID: uuid.New().String()}
}

// NextRev returns the header of the subsequent revision.
func (h EntityHeader) NextRev() EntityHeader {
	return EntityHeader{UID: h.UID, Rev: h.Rev.Next()}
}

// TrackEntity is a revision-tracked track record.
type TrackEntity struct {
	Header EntityHeader
	Track  Track
}
