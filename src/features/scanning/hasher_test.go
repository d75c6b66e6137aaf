package scanning

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tonearm/src/music"
)

func hashAll(t *testing.T, root string, maxDepth int) map[string]music.Digest {
	t.Helper()
	digests := make(map[string]music.Digest)
	completion, err := hashDirectoriesRecursively(context.Background(), root, maxDepth, nil, nil,
		func(relPath string, digest music.Digest) error {
			digests[relPath] = digest
			return nil
		})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if completion != CompletionFinished {
		t.Fatalf("expected finished walk, got %v", completion)
	}
	return digests
}

func TestHashDirectories_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "one.mp3"), "one")
	writeFile(t, filepath.Join(root, "a", "b", "two.flac"), "two")

	first := hashAll(t, root, 0)
	second := hashAll(t, root, 0)

	if len(first) != 3 {
		t.Fatalf("expected 3 directories, got %d", len(first))
	}
	for path, digest := range first {
		if second[path] != digest {
			t.Errorf("digest for %s changed between identical walks", path)
		}
	}
}

func TestHashDirectories_ChildChangePropagatesToParent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b", "two.flac")
	writeFile(t, filepath.Join(root, "a", "one.mp3"), "one")
	writeFile(t, target, "two")

	before := hashAll(t, root, 0)
	writeFile(t, target, "two, revised")
	after := hashAll(t, root, 0)

	for _, path := range []string{".", "a", filepath.Join("a", "b")} {
		if before[path] == after[path] {
			t.Errorf("expected digest of %s to change", path)
		}
	}
}

func TestHashDirectories_SiblingUnaffected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "one.mp3"), "one")
	writeFile(t, filepath.Join(root, "c", "three.mp3"), "three")

	before := hashAll(t, root, 0)
	writeFile(t, filepath.Join(root, "a", "one.mp3"), "changed")
	after := hashAll(t, root, 0)

	if before["c"] != after["c"] {
		t.Error("expected untouched sibling digest to be stable")
	}
	if before["a"] == after["a"] {
		t.Error("expected changed directory digest to differ")
	}
}

func TestHashDirectories_MaxDepthPrunes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "deep.mp3"), "deep")

	digests := hashAll(t, root, 2)
	if _, ok := digests["."]; !ok {
		t.Error("expected root to be visited")
	}
	if _, ok := digests["a"]; !ok {
		t.Error("expected depth-2 directory to be visited")
	}
	if _, ok := digests[filepath.Join("a", "b")]; ok {
		t.Error("expected directory below max depth not to be visited")
	}
}

func TestHashDirectories_MissingRootFails(t *testing.T) {
	_, err := hashDirectoriesRecursively(context.Background(), filepath.Join(t.TempDir(), "nope"), 0, nil, nil,
		func(string, music.Digest) error { return nil })
	if err == nil {
		t.Error("expected error for missing root")
	}
}

func TestHashDirectories_RootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.mp3")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := hashDirectoriesRecursively(context.Background(), file, 0, nil, nil,
		func(string, music.Digest) error { return nil })
	if err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestNormalizeEntryPath(t *testing.T) {
	cases := map[string]string{
		".":     "",
		"a":     "a/",
		"a/b":   "a/b/",
		"a/b/.": "a/b/",
	}
	for input, expected := range cases {
		if got := normalizeEntryPath(input); got != expected {
			t.Errorf("normalizeEntryPath(%q) = %q, expected %q", input, got, expected)
		}
	}
}
