package scanning

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"tonearm/src/features/jobs"
)

// ScanTask implements jobs.Task for collection scans.
type ScanTask struct {
	service *Service

	mu         sync.Mutex
	abortFlags map[string]*atomic.Bool
}

// NewScanTask creates a new ScanTask.
func NewScanTask(service *Service) *ScanTask {
	return &ScanTask{
		service:    service,
		abortFlags: make(map[string]*atomic.Bool),
	}
}

// MetadataKeys returns the required metadata keys for a scan job.
func (t *ScanTask) MetadataKeys() []string {
	return []string{"collection_id"}
}

// Execute runs one scan pass.
func (t *ScanTask) Execute(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	collectionID := job.Metadata["collection_id"].(string)

	abortFlag := &atomic.Bool{}
	t.mu.Lock()
	t.abortFlags[job.ID] = abortFlag
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.abortFlags, job.ID)
		t.mu.Unlock()
	}()

	// The walker samples both the flag and ctx between directories, so
	// a cancelled context winds the pass down cooperatively on its own;
	// the flag exists for Cleanup to signal an abort out of band.
	outcome, err := t.service.Scan(ctx, collectionID, abortFlag, func(event ProgressEvent) {
		// Total directory count is unknown upfront, so only the message
		// carries information.
		progressUpdater(0, fmt.Sprintf("Hashed %d directories (%d files), at %s", event.Directories, event.Files, event.CurrentPath))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}

	message := fmt.Sprintf("Scan %s: %d current, %d added, %d modified, %d orphaned, %d skipped",
		outcome.Completion, outcome.Summary.Current, outcome.Summary.Added,
		outcome.Summary.Modified, outcome.Summary.Orphaned, outcome.Summary.Skipped)
	job.Logger.Info(message)

	return map[string]any{
		"completion": outcome.Completion.String(),
		"summary":    outcome.Summary,
		"msg":        message,
	}, nil
}

// Cleanup signals any leftover abort flag for the job.
func (t *ScanTask) Cleanup(job *jobs.Job) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if flag, ok := t.abortFlags[job.ID]; ok {
		flag.Store(true)
	}
	return nil
}
