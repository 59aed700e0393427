package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalImageStore keeps wardrobe images on local disk. It is used when no bucket is configured
// and serves the files itself under URLPrefix.
type LocalImageStore struct {
	Dir       string
	URLPrefix string
}

// NewLocalImageStore creates the upload directory if it doesn't exist
func NewLocalImageStore(dir, urlPrefix string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &LocalImageStore{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

// pathFor roots the key inside Dir; cleaning "/"+key drops any leading "..".
func (s *LocalImageStore) pathFor(key string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(path.Clean("/"+key)))
}

// Upload writes the object to disk
func (s *LocalImageStore) Upload(_ context.Context, key string, body io.Reader, _ string) error {
	p := s.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return fmt.Errorf("error saving file content: %w", err)
	}
	return nil
}

// Delete removes the file. Missing files are not an error.
func (s *LocalImageStore) Delete(_ context.Context, key string) error {
	p := s.pathFor(key)
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// URL returns the path the file is served under
func (s *LocalImageStore) URL(_ context.Context, key string) (string, error) {
	return s.URLPrefix + "/" + strings.TrimLeft(key, "/"), nil
}

// Handler serves stored files under URLPrefix. Directories are never listed.
func (s *LocalImageStore) Handler() http.Handler {
	return http.StripPrefix(s.URLPrefix+"/", http.FileServer(filesOnly{http.Dir(s.Dir)}))
}

// filesOnly refuses to open directories
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
