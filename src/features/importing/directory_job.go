package importing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"tonearm/src/features/jobs"
)

// DirectoryImportTask implements jobs.Task for directory imports.
type DirectoryImportTask struct {
	service *Service
}

// NewDirectoryImportTask creates a new DirectoryImportTask.
func NewDirectoryImportTask(service *Service) *DirectoryImportTask {
	return &DirectoryImportTask{service: service}
}

// MetadataKeys returns the required metadata keys for a directory import job.
func (t *DirectoryImportTask) MetadataKeys() []string {
	return []string{"collection_id", "path"}
}

// countSupportedFiles counts the number of supported audio files in a directory.
func countSupportedFiles(pathToImport string) int {
	totalFiles := 0
	filepath.Walk(pathToImport, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			totalFiles++
		}
		return nil
	})
	return totalFiles
}

// Execute runs the directory import logic.
func (t *DirectoryImportTask) Execute(ctx context.Context, job *jobs.Job, progressUpdater func(int, string)) (map[string]any, error) {
	collectionID := job.Metadata["collection_id"].(string)
	pathToImport := job.Metadata["path"].(string)

	totalFiles := countSupportedFiles(pathToImport)
	if totalFiles == 0 {
		job.Logger.Info("No supported audio files found", "path", pathToImport)
		return map[string]any{"summary": BatchSummary{}}, nil
	}

	var summary BatchSummary
	processed := 0
	err := filepath.WalkDir(pathToImport, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		processed++
		progressUpdater(processed*100/totalFiles, fmt.Sprintf("Importing %s", filepath.Base(path)))

		result, err := t.service.ImportFile(ctx, collectionID, path)
		if err != nil {
			// One bad file never aborts the batch.
			job.Logger.Warn("Failed to import file", "path", path, "error", err)
			summary.NotImported++
			return nil
		}
		summary.Tally(result)
		switch r := result.(type) {
		case ReplaceAmbiguous:
			job.Logger.Warn("Ambiguous media path", "path", path, "matches", r.Matches)
		case ReplaceIncompatibleFormat:
			job.Logger.Warn("Incompatible stored payload format", "path", path, "format", r.Format)
		case ReplaceIncompatibleVersion:
			job.Logger.Warn("Incompatible stored payload version", "path", path, "version", r.Version.String())
		}
		return nil
	})
	if err != nil {
		return map[string]any{"summary": summary}, fmt.Errorf("failed to import directory: %w", err)
	}

	message := fmt.Sprintf("Directory import finished. Processed %d files (%d created, %d updated, %d unchanged, %d not created, %d conflicts, %d not imported).",
		summary.Total(), summary.Created, summary.Updated, summary.Unchanged, summary.NotCreated, summary.Conflicts, summary.NotImported)
	job.Logger.Info(message)

	if summary.Conflicts > 0 || summary.NotImported > 0 {
		return map[string]any{"summary": summary, "msg": message}, errors.New("some files failed to import")
	}
	return map[string]any{"summary": summary, "msg": message}, nil
}

// Cleanup does nothing for directory imports.
func (t *DirectoryImportTask) Cleanup(job *jobs.Job) error {
	return nil
}
