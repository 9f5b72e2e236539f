package fileid

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDigest(t *testing.T) {
	if Digest("/foo/bar.txt") != Digest("/foo/bar.txt") {
		t.Error("same path should give same digest")
	}
	if Digest("/foo/bar.txt") == Digest("/foo/baz.txt") {
		t.Error("different paths should give different digests")
	}
	// /foo/bar, /foo/bar/ and /foo/./bar clean to the same path
	d := Digest("/foo/bar")
	if Digest("/foo/bar/") != d || Digest("/foo/./bar") != d {
		t.Error("digest should be computed on the cleaned path")
	}
	if len(d) != 16 {
		t.Errorf("digest length = %d, want 16", len(d))
	}
}

func TestChunkID(t *testing.T) {
	a := ChunkID("/notes/a.md", 0)
	b := ChunkID("/notes/a.md", 0)
	if a == b {
		t.Errorf("chunk ids should be unique: %q", a)
	}
	if !strings.HasPrefix(a, prefix) {
		t.Errorf("id should have prefix %q: %q", prefix, a)
	}
	if !BelongsTo(a, "/notes/a.md") || !BelongsTo(ChunkID("/notes/a.md", 3), "/notes/./a.md") {
		t.Error("ids should belong to their path")
	}
	if BelongsTo(a, "/notes/b.md") {
		t.Error("id should not belong to another path")
	}
}

func TestSource(t *testing.T) {
	abs, _ := filepath.Abs(".")
	got, err := Source(".")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Clean(abs) {
		t.Errorf("Source(.) = %q, want %q", got, abs)
	}
	got, _ = Source("/foo/../bar/")
	if got != "/bar" {
		t.Errorf("Source should clean: %q", got)
	}
}
