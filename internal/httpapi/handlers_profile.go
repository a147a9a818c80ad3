package httpapi

import (
	"errors"
	"net/http"

	"traveldiary/internal/db"
)

type profileView struct {
	Username    string
	EmailAlerts bool
}

func (s *Server) handleProfileForm(w http.ResponseWriter, r *http.Request) {
	u := principal(r)
	pref, ok, err := s.DB.GetAlertPreference(r.Context(), u.ID)
	if err != nil {
		s.serverError(w, r, "load alert preference", err)
		return
	}
	// No row yet renders like the column default.
	alerts := true
	if ok {
		alerts = pref.EmailAlerts
	}
	s.render(w, r, http.StatusOK, "profile", "Profile", profileView{Username: u.Username, EmailAlerts: alerts})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.Flashes.Add(w, r, flashDanger, "Invalid form submission.")
		redirect(w, r, "/profile")
		return
	}
	f, err := parseProfileForm(r)
	if err != nil {
		s.Flashes.Add(w, r, flashDanger, validationMessage(err))
		redirect(w, r, "/profile")
		return
	}

	u := principal(r)
	if err := s.DB.UpdateProfile(r.Context(), u.ID, f.Username, f.EmailAlerts); err != nil {
		if errors.Is(err, db.ErrConflict) {
			s.Flashes.Add(w, r, flashDanger, "Username already taken.")
			redirect(w, r, "/profile")
			return
		}
		s.serverError(w, r, "update profile", err)
		return
	}
	s.Logger.Info("profile updated", "user_id", u.ID, "email_alerts", f.EmailAlerts)
	s.Flashes.Add(w, r, flashSuccess, "Profile updated successfully.")
	redirect(w, r, "/profile")
}
