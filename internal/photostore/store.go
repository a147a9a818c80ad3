// Package photostore keeps uploaded photos in a single server-controlled
// directory. Only the generated base name ever leaves this package.
package photostore

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"traveldiary/internal/fsutil"
)

var (
	ErrUnsupportedType = errors.New("unsupported photo type")
	ErrTooLarge        = errors.New("photo is too large")
)

// AllowedExtensions are the photo formats accepted for upload.
var AllowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// Store writes photos under root. All writes go through fs, which is the
// OS filesystem in production.
type Store struct {
	root     string
	fs       afero.Fs
	maxBytes int64
}

// New returns a store rooted at dir, creating it if needed. maxBytes <= 0
// disables the size limit.
func New(dir string, maxBytes int64) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), dir, maxBytes)
}

func NewWithFs(fs afero.Fs, dir string, maxBytes int64) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := fs.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: abs, fs: fs, maxBytes: maxBytes}, nil
}

// Dir is the absolute upload directory.
func (s *Store) Dir() string { return s.root }

// Save copies r to a new file derived from the client-supplied name and
// returns the stored base name. The name is sanitized and prefixed with a
// random UUID so two uploads never overwrite each other.
func (s *Store) Save(clientName string, r io.Reader) (string, error) {
	clean, err := fsutil.SanitizeFilename(clientName)
	if err != nil {
		return "", err
	}
	if !AllowedExtensions[strings.ToLower(filepath.Ext(clean))] {
		return "", ErrUnsupportedType
	}
	name := uuid.NewString() + "_" + clean

	dst, err := fsutil.ResolveWithinRoot(s.root, name)
	if err != nil {
		return "", err
	}
	f, err := s.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(dst)
		return "", err
	}
	return name, nil
}

// Remove deletes a stored photo. A missing file is not an error.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return os.ErrNotExist
	}
	p, err := fsutil.ResolveWithinRoot(s.root, name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open returns a stored photo by base name.
func (s *Store) Open(name string) (afero.File, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, os.ErrNotExist
	}
	p, err := fsutil.ResolveWithinRoot(s.root, name)
	if err != nil {
		return nil, os.ErrNotExist
	}
	return s.fs.Open(p)
}

// Handler serves stored photos by base name without directory listings.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Base(r.URL.Path)
		f, err := s.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		st, err := f.Stat()
		if err != nil || st.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("x-content-type-options", "nosniff")
		http.ServeContent(w, r, name, st.ModTime(), f)
	})
}
