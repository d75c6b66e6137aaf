package scanning

import "time"

// Summary tallies the cache outcomes of one scan pass. The persisted
// entry states are authoritative; these counts mirror them.
type Summary struct {
	Current  int `json:"current"`
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Orphaned int `json:"orphaned"`
	Skipped  int `json:"skipped"`
}

// Completion indicates whether a scan pass ran to the end or was
// cooperatively aborted.
type Completion int

const (
	CompletionFinished Completion = iota
	CompletionAborted
)

func (c Completion) String() string {
	if c == CompletionAborted {
		return "aborted"
	}
	return "finished"
}

// Outcome is the result of one scan pass.
type Outcome struct {
	Completion Completion    `json:"completion"`
	Summary    Summary       `json:"summary"`
	Elapsed    time.Duration `json:"elapsed"`
}

// ProgressEvent reports informational counts while a scan is running.
// The counts are a side channel, not authoritative.
type ProgressEvent struct {
	Directories int
	Files       int
	CurrentPath string
}
