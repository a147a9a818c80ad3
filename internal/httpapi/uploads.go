package httpapi

import (
	"errors"
	"net/http"

	"traveldiary/internal/fsutil"
	"traveldiary/internal/photostore"
)

// multipartMemory is how much of a multipart body is held in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// parseUpload bounds and parses a multipart or urlencoded body. On failure
// it has already responded and returns false.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request, back string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return true
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		s.Flashes.Add(w, r, flashDanger, "Photo is too large.")
		redirect(w, r, back)
		return false
	}
	s.Logger.Warn("parse form", "err", err, "path", r.URL.Path)
	s.Flashes.Add(w, r, flashDanger, "Invalid form submission.")
	redirect(w, r, back)
	return false
}

// discardPhoto removes a photo whose record was never written.
func (s *Server) discardPhoto(name string) {
	if name == "" {
		return
	}
	if err := s.Photos.Remove(name); err != nil {
		s.Logger.Warn("remove orphaned photo", "photo", name, "err", err)
	}
}

// savePhoto stores the optional "photo" field and returns its stored name,
// or "" when none was sent. On failure it has already responded and
// returns false.
func (s *Server) savePhoto(w http.ResponseWriter, r *http.Request, back string) (string, bool) {
	file, fh, err := optionalFile(r, "photo")
	if err != nil {
		s.serverError(w, r, "read photo", err)
		return "", false
	}
	if file == nil {
		return "", true
	}
	defer file.Close()

	name, err := s.Photos.Save(fh.Filename, file)
	switch {
	case err == nil:
		return name, true
	case errors.Is(err, photostore.ErrUnsupportedType):
		s.Flashes.Add(w, r, flashDanger, "Photos must be JPG, PNG, GIF or WebP images.")
	case errors.Is(err, photostore.ErrTooLarge):
		s.Flashes.Add(w, r, flashDanger, "Photo is too large.")
	case errors.Is(err, fsutil.ErrEmptyFilename), errors.Is(err, fsutil.ErrPathTraversal):
		s.Flashes.Add(w, r, flashDanger, "Invalid photo filename.")
	default:
		s.serverError(w, r, "save photo", err)
		return "", false
	}
	redirect(w, r, back)
	return "", false
}
