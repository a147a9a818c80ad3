package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"traveldiary/internal/db"
)

type diariesView struct {
	Query   string
	Entries []db.DiaryEntry
}

type dashboardView struct {
	Entries   []db.DiaryEntry
	Incidents []db.Incident
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u := principal(r)
	ctx := r.Context()
	entries, err := s.DB.ListDiaryEntriesByUser(ctx, u.ID)
	if err != nil {
		s.serverError(w, r, "list own diary entries", err)
		return
	}
	incidents, err := s.DB.ListIncidentsByUser(ctx, u.ID)
	if err != nil {
		s.serverError(w, r, "list own incidents", err)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", "Dashboard", dashboardView{Entries: entries, Incidents: incidents})
}

func (s *Server) handleSubmitDiaryForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "submit_diary", "New diary entry", nil)
}

func (s *Server) handleSubmitDiary(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r, "/submit_diary") {
		return
	}
	f, err := parseDiaryForm(r)
	if err != nil {
		s.Flashes.Add(w, r, flashDanger, validationMessage(err))
		redirect(w, r, "/submit_diary")
		return
	}
	photo, ok := s.savePhoto(w, r, "/submit_diary")
	if !ok {
		return
	}

	u := principal(r)
	e := db.NewDiaryEntry(u.ID, f.Title, f.Description, photo)
	if err := s.DB.CreateDiaryEntry(r.Context(), e); err != nil {
		s.discardPhoto(photo)
		s.serverError(w, r, "create diary entry", err)
		return
	}
	s.Logger.Info("diary entry created", "entry_id", e.ID, "user_id", u.ID, "photo", photo != "")
	if s.Metrics != nil {
		s.Metrics.DiaryEntries.Inc()
	}
	s.Flashes.Add(w, r, flashSuccess, "Diary entry submitted successfully.")
	redirect(w, r, "/dashboard")
}

func (s *Server) handleViewDiaries(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	ctx := r.Context()
	entries, err := s.DB.ListPublicDiaryEntries(ctx, q)
	if err != nil {
		s.serverError(w, r, "list diary entries", err)
		return
	}
	ids := make([]int64, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
	}
	comments, err := s.DB.ListCommentsForEntries(ctx, ids)
	if err != nil {
		s.serverError(w, r, "list comments", err)
		return
	}
	for i := range entries {
		entries[i].Comments = comments[entries[i].ID]
	}
	s.render(w, r, http.StatusOK, "view_diaries", "Travel diaries", diariesView{Query: q, Entries: entries})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "diaryID"), 10, 64)
	if err != nil || id <= 0 {
		s.renderError(w, r, http.StatusNotFound, "Page not found.")
		return
	}
	content := field(r, "content")
	if content == "" {
		s.Flashes.Add(w, r, flashDanger, "Comment cannot be empty.")
		redirect(w, r, "/view_diaries")
		return
	}

	u := principal(r)
	c := &db.Comment{Content: content, UserID: u.ID, DiaryEntryID: id}
	if err := s.DB.CreateComment(r.Context(), c); err != nil {
		if errors.Is(err, db.ErrInvalidReference) {
			s.Logger.Warn("comment on missing diary entry", "entry_id", id, "user_id", u.ID)
			s.Flashes.Add(w, r, flashDanger, "Could not add comment.")
			redirect(w, r, "/view_diaries")
			return
		}
		s.serverError(w, r, "create comment", err)
		return
	}
	if s.Metrics != nil {
		s.Metrics.Comments.Inc()
	}
	s.Flashes.Add(w, r, flashSuccess, "Comment added.")
	redirect(w, r, "/view_diaries")
}
