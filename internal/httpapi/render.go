package httpapi

import (
	"bytes"
	"net/http"

	"traveldiary/internal/db"
	"traveldiary/internal/webui"
)

const genericErrorMessage = "Something went wrong. Please try again later."

type errorView struct {
	Status  int
	Message string
}

// render writes page name with the principal and any pending flashes.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	p := webui.Page{
		Title:   title,
		User:    principal(r),
		Flashes: s.Flashes.Pop(w, r),
		Data:    data,
	}
	var buf bytes.Buffer
	if err := s.Pages.Render(&buf, name, p); err != nil {
		s.Logger.Error("render page", "page", name, "err", err)
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error", http.StatusText(status), errorView{Status: status, Message: msg})
}

// serverError logs err and renders the generic 500 page, or 503 while the
// database is locked.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if db.IsBusy(err) {
		s.Logger.Warn(op, "err", err, "path", r.URL.Path)
		s.renderError(w, r, http.StatusServiceUnavailable, "The server is busy. Please try again.")
		return
	}
	s.Logger.Error(op, "err", err, "path", r.URL.Path)
	s.renderError(w, r, http.StatusInternalServerError, genericErrorMessage)
}
