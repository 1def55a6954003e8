// Package localfs implements storage.ObjectStore on the local filesystem and
// serves the stored objects over HTTP.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Store writes objects below <root>/<bucket>/ and hands out URLs below
// <baseURL>/<bucket>/.
type Store struct {
	root    string
	bucket  string
	baseURL string
}

// New creates the bucket directory if needed.
func New(root, bucket, baseURL string) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("localfs: bucket is required")
	}
	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("localfs: create %s: %w", dir, err)
	}
	return &Store{root: root, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// resolve maps an object path to a file below the bucket directory,
// rejecting paths that would escape it.
func (s *Store) resolve(objectPath string) (string, error) {
	clean := filepath.Clean("/" + objectPath)
	if clean == "/" {
		return "", errors.New("localfs: empty object path")
	}
	return filepath.Join(s.root, s.bucket, filepath.FromSlash(clean)), nil
}

// Upload writes r to a temp file and renames it into place, so readers
// never observe a partial object.
func (s *Store) Upload(ctx context.Context, objectPath, _ string, r io.Reader, size int64) error {
	dst, err := s.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("localfs: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("localfs: create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("localfs: write %s: %w", objectPath, err)
	}
	if size >= 0 && n != size {
		return fmt.Errorf("localfs: short write %s: got %d of %d bytes", objectPath, n, size)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("localfs: rename: %w", err)
	}
	return nil
}

// PublicURL returns <baseURL>/<bucket>/<path> with each segment escaped.
func (s *Store) PublicURL(objectPath string) string {
	segs := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + url.PathEscape(s.bucket) + "/" + strings.Join(segs, "/")
}

// Handler serves stored objects. Mount it at the path of baseURL with the
// prefix stripped; directory listings are disabled.
func (s *Store) Handler() http.Handler {
	fs := http.FileServer(noDirFS{http.Dir(s.root)})
	return fs
}

// noDirFS hides directories so the bucket cannot be listed.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
