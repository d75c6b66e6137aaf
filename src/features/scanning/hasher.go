package scanning

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	"tonearm/src/music"
)

// dirVisitor is called once per directory, post-order, with the path
// relative to the scan root and the directory's content digest.
type dirVisitor func(relPath string, digest music.Digest) error

type walker struct {
	rootDir    string
	maxDepth   int // 0 means unlimited
	abortFlag  *atomic.Bool
	visit      dirVisitor
	progressFn func(ProgressEvent)
	progress   ProgressEvent
}

// hashDirectoriesRecursively walks the tree below rootDir, computes a
// content digest per directory and feeds each into visit. The walk is
// sequential and checks the abort flag between directory visits; when
// signaled it finishes the directory in progress and reports
// CompletionAborted. I/O errors fail the whole pass.
func hashDirectoriesRecursively(
	ctx context.Context,
	rootDir string,
	maxDepth int,
	abortFlag *atomic.Bool,
	progressFn func(ProgressEvent),
	visit dirVisitor,
) (Completion, error) {
	rootDir = filepath.Clean(rootDir)
	info, err := os.Stat(rootDir)
	if err != nil {
		return CompletionFinished, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return CompletionFinished, fmt.Errorf("scan root is not a directory: %s", rootDir)
	}
	w := &walker{
		rootDir:    rootDir,
		maxDepth:   maxDepth,
		abortFlag:  abortFlag,
		visit:      visit,
		progressFn: progressFn,
	}
	_, aborted, err := w.walkDir(ctx, rootDir, 1)
	if err != nil {
		return CompletionFinished, err
	}
	if aborted {
		return CompletionAborted, nil
	}
	return CompletionFinished, nil
}

func (w *walker) aborted(ctx context.Context) bool {
	if w.abortFlag != nil && w.abortFlag.Load() {
		return true
	}
	return ctx.Err() != nil
}

// walkDir hashes one directory and, depth permitting, its children
// first. It returns the directory's digest and whether the walk was
// aborted before this directory could be visited.
func (w *walker) walkDir(ctx context.Context, dir string, depth int) (music.Digest, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return music.Digest{}, false, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	hasher := sha256.New()
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if w.maxDepth > 0 && depth >= w.maxDepth {
				// Not descending; the name still contributes to the digest
				// so renames of pruned subtrees are detected.
				hashDirEntryName(hasher, entry.Name())
				continue
			}
			if w.aborted(ctx) {
				return music.Digest{}, true, nil
			}
			childDigest, aborted, err := w.walkDir(ctx, path, depth+1)
			if err != nil {
				return music.Digest{}, false, err
			}
			if aborted {
				return music.Digest{}, true, nil
			}
			hashDirEntryName(hasher, entry.Name())
			hasher.Write(childDigest[:])
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return music.Digest{}, false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		hashFileMember(hasher, entry.Name(), info)
		w.progress.Files++
	}

	digest, err := music.DigestFromBytes(hasher.Sum(nil))
	if err != nil {
		return music.Digest{}, false, err
	}

	relPath, err := filepath.Rel(w.rootDir, dir)
	if err != nil {
		return music.Digest{}, false, err
	}
	if err := w.visit(relPath, digest); err != nil {
		return music.Digest{}, false, err
	}
	w.progress.Directories++
	w.progress.CurrentPath = relPath
	if w.progressFn != nil {
		w.progressFn(w.progress)
	}
	return digest, false, nil
}

func hashDirEntryName(h hash.Hash, name string) {
	fmt.Fprintf(h, "d\x00%s\x00", name)
}

func hashFileMember(h hash.Hash, name string, info fs.FileInfo) {
	fmt.Fprintf(h, "f\x00%s\x00%d\x00%d\x00", name, info.Size(), info.ModTime().UnixNano())
}
