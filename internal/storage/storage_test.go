package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"feed_notifier/internal/model"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return s
}

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage(t *testing.T) {
	backends := []struct {
		name string
		new  func(t *testing.T) Storage
	}{
		{name: "file", new: func(t *testing.T) Storage { return newTestFileStore(t) }},
		{name: "sqlite", new: func(t *testing.T) Storage { return newTestDB(t) }},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.new(t)
			url := "https://example.com/feed.xml"

			got, err := s.Load(ctx, url)
			if err != nil {
				t.Fatalf("load missing: %v", err)
			}
			if diff := cmp.Diff(0, len(got)); diff != "" {
				t.Errorf("expected empty set for unknown feed (-want +got):\n%s", diff)
			}

			if err := s.Save(ctx, url, model.NewSeenSet("a", "b", "c")); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err = s.Load(ctx, url)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if diff := cmp.Diff([]string{"a", "b", "c"}, got.IDs()); diff != "" {
				t.Errorf("loaded ids mismatch (-want +got):\n%s", diff)
			}

			// Save is a full overwrite, not an append.
			if err := s.Save(ctx, url, model.NewSeenSet("b", "d")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err = s.Load(ctx, url)
			if err != nil {
				t.Fatalf("load after overwrite: %v", err)
			}
			if diff := cmp.Diff([]string{"b", "d"}, got.IDs()); diff != "" {
				t.Errorf("ids after overwrite mismatch (-want +got):\n%s", diff)
			}

			other, err := s.Load(ctx, "https://example.com/other.xml")
			if err != nil {
				t.Fatalf("load other: %v", err)
			}
			if diff := cmp.Diff(0, len(other)); diff != "" {
				t.Errorf("feeds must not share seen-sets (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{
			name: "differ only in substituted characters",
			a:    "https://example.com/feed?a=1",
			b:    "https://example.com/feed?a_1",
		},
		{
			name: "differ only after the truncated prefix",
			a:    "https://example.com/" + strings.Repeat("x", 100) + "/one",
			b:    "https://example.com/" + strings.Repeat("x", 100) + "/two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := FileKey(tt.a), FileKey(tt.b)
			if ka == kb {
				t.Errorf("keys collide: %q", ka)
			}
			if diff := cmp.Diff(ka, FileKey(tt.a)); diff != "" {
				t.Errorf("key is not stable (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileKeyIsSafe(t *testing.T) {
	for _, url := range []string{
		"../../etc/passwd",
		"https://example.com/../../secret",
		`C:\windows\feed`,
		"file:///tmp/feed.xml",
	} {
		key := FileKey(url)
		if strings.ContainsAny(key, `/\`) {
			t.Errorf("FileKey(%q) = %q contains a path separator", url, key)
		}
		if !strings.HasPrefix(key, "seen_") || !strings.HasSuffix(key, ".txt") {
			t.Errorf("FileKey(%q) = %q has unexpected shape", url, key)
		}
	}
}

func TestFileStoreCollidingURLs(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)

	a, b := "https://example.com/feed?a=1", "https://example.com/feed?a_1"
	if err := s.Save(ctx, a, model.NewSeenSet("from-a")); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := s.Save(ctx, b, model.NewSeenSet("from-b")); err != nil {
		t.Fatalf("save b: %v", err)
	}

	got, err := s.Load(ctx, a)
	if err != nil {
		t.Fatalf("load a: %v", err)
	}
	if diff := cmp.Diff([]string{"from-a"}, got.IDs()); diff != "" {
		t.Errorf("seen-set of a mismatch (-want +got):\n%s", diff)
	}
}

func TestFileStoreFormat(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	url := "https://example.com/feed"

	if err := s.Save(ctx, url, model.NewSeenSet("y", "x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(s.Path(url))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff("x\ny\n", string(data)); diff != "" {
		t.Errorf("file content mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(s.Path(url)))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if diff := cmp.Diff(1, len(entries)); diff != "" {
		t.Errorf("temp files left behind (-want +got):\n%s", diff)
	}
}

func TestFileStoreSkipsBlankLines(t *testing.T) {
	ctx := context.Background()
	s := newTestFileStore(t)
	url := "https://example.com/feed"

	if err := os.WriteFile(s.Path(url), []byte("a\n\n  b  \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := s.Load(ctx, url)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got.IDs()); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

// Ensure the Storage interface is satisfied.
var (
	_ Storage = (*SQLite)(nil)
	_ Storage = (*FileStore)(nil)
)
