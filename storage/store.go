package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spotmap/config"
)

// ErrNotFound is returned by Resolve when no search root contains the file.
var ErrNotFound = errors.New("image file not found")

// ImageStore persists uploaded image bytes and locates them later by their
// logical URL. Implementations must treat Delete as best-effort: a missing or
// undeletable file never fails the caller's operation.
type ImageStore interface {
	Save(data []byte, originalFilename string) (string, error)
	Delete(imageURL string)
	Resolve(filename string) (string, error)
}

// DiskStore writes files under root/<dir> for the first configured dir and
// searches every configured dir when resolving or deleting, so files from the
// old "markers" layout stay reachable without a migration.
type DiskStore struct {
	root string
	dirs []string
	log  zerolog.Logger
}

func NewDiskStore(cfg config.UploadConfig, log zerolog.Logger) *DiskStore {
	return &DiskStore{
		root: cfg.Root,
		dirs: cfg.Dirs,
		log:  log.With().Str("component", "storage").Logger(),
	}
}

// Save writes data under a freshly generated name and returns the logical
// URL ("/uploads/<dir>/<token><ext>") that identifies the file from now on.
func (s *DiskStore) Save(data []byte, originalFilename string) (string, error) {
	dir := filepath.Join(s.root, s.dirs[0])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(originalFilename)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}

	url := "/uploads/" + s.dirs[0] + "/" + name
	s.log.Debug().Str("url", url).Int("size", len(data)).Msg("image file saved")
	return url, nil
}

// Delete removes the file behind imageURL from the first search root that
// contains it. Failures are logged and swallowed so database cleanup that
// triggered the delete is never blocked.
func (s *DiskStore) Delete(imageURL string) {
	if imageURL == "" {
		return
	}
	filename := filepath.Base(imageURL)

	for _, dir := range s.dirs {
		path := filepath.Join(s.root, dir, filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.log.Error().Err(err).Str("path", path).Msg("failed to delete image file")
			return
		}
		s.log.Info().Str("path", path).Msg("deleted image file")
		return
	}

	s.log.Warn().Str("filename", filename).Msg("file not found in any upload directory")
}

// Resolve returns the on-disk path for filename, trying each search root in
// order. The filename is reduced to its base component first so path
// traversal in a request can never escape the upload root.
func (s *DiskStore) Resolve(filename string) (string, error) {
	filename = filepath.Base(filename)

	for _, dir := range s.dirs {
		path := filepath.Join(s.root, dir, filename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}
