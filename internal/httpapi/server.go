// Package httpapi serves the travel diary web application.
package httpapi

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"traveldiary/internal/db"
	"traveldiary/internal/geocode"
	"traveldiary/internal/metrics"
	"traveldiary/internal/photostore"
	"traveldiary/internal/webui"
)

// Server holds the dependencies shared by every handler.
type Server struct {
	DB       *db.DB
	Sessions *Sessions
	Flashes  *Flashes
	// Geocoder may be nil, in which case incidents are stored without
	// coordinates.
	Geocoder geocode.Geocoder
	Photos   *photostore.Store
	Pages    *webui.Renderer
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// MaxUploadBytes bounds a whole multipart request body.
	MaxUploadBytes int64
}

// Handler builds the router with all middleware attached.
func (s *Server) Handler() (http.Handler, error) {
	if s.DB == nil {
		return nil, errors.New("db is required")
	}
	if s.Sessions == nil || s.Flashes == nil {
		return nil, errors.New("sessions and flashes are required")
	}
	if s.Photos == nil || s.Pages == nil {
		return nil, errors.New("photo store and templates are required")
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.MaxUploadBytes <= 0 {
		s.MaxUploadBytes = 16 << 20
	}
	staticFS, err := fs.Sub(webui.StaticFS, "static")
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(s.withRequestLog)
	r.Use(s.withRecover)
	r.Use(withSecurityHeaders)
	r.Use(s.withPrincipal)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Page not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", s.Photos.Handler()))
	r.Get("/healthz", s.handleHealthz)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}

	r.Get("/", s.handleIndex)
	r.Get("/view_diaries", s.handleViewDiaries)

	r.Group(func(r chi.Router) {
		r.Use(s.redirectIfAuthenticated)
		r.Get("/register", s.handleRegisterForm)
		r.Post("/register", s.handleRegister)
		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireLogin)
		r.Get("/logout", s.handleLogout)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/submit_diary", s.handleSubmitDiaryForm)
		r.Post("/submit_diary", s.handleSubmitDiary)
		r.Post("/add_comment/{diaryID}", s.handleAddComment)
		r.Get("/report_incident", s.handleReportIncidentForm)
		r.Post("/report_incident", s.handleReportIncident)
		r.Get("/profile", s.handleProfileForm)
		r.Post("/profile", s.handleProfile)
	})

	return r, nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.Ping(r.Context()); err != nil {
		s.Logger.Error("healthz", "err", err)
		http.Error(w, "db unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("content-type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// redirect sends the client to path with 303 so a POST becomes a GET.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
