package storage

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"feed_notifier/internal/model"
)

const maxKeyPrefix = 80

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileKey returns the file name used to persist the seen-set of url.
// The readable prefix is the sanitized url; the hash suffix keeps urls
// that sanitize to the same prefix apart.
func FileKey(url string) string {
	prefix := unsafeChars.ReplaceAllString(url, "_")
	if len(prefix) > maxKeyPrefix {
		prefix = prefix[:maxKeyPrefix]
	}
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("seen_%s-%s.txt", prefix, hex.EncodeToString(sum[:8]))
}

// FileStore implements Storage with one text file per feed, one identifier per line.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file that holds the seen-set of url.
func (s *FileStore) Path(url string) string {
	return filepath.Join(s.dir, FileKey(url))
}

// Load reads the seen-set of url. A missing file yields an empty set.
func (s *FileStore) Load(_ context.Context, url string) (model.SeenSet, error) {
	f, err := os.Open(s.Path(url))
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewSeenSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seen file: %w", err)
	}
	defer func() { _ = f.Close() }()

	seen := model.NewSeenSet()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			seen.Add(id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seen file: %w", err)
	}
	return seen, nil
}

// Save rewrites the seen-set of url. The new content is written to a
// temporary file and renamed over the old one.
func (s *FileStore) Save(_ context.Context, url string, seen model.SeenSet) error {
	path := s.Path(url)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	for _, id := range seen.IDs() {
		if _, err := w.WriteString(id + "\n"); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("write seen file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush seen file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync seen file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close seen file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace seen file: %w", err)
	}
	return nil
}

// Close is a no-op; FileStore holds no open resources.
func (s *FileStore) Close() error {
	return nil
}
