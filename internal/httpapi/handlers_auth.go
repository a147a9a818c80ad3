package httpapi

import (
	"errors"
	"net/http"

	"traveldiary/internal/db"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index", "", nil)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", "Register", nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := parseRegisterForm(r)
	if err != nil {
		s.Flashes.Add(w, r, flashDanger, validationMessage(err))
		redirect(w, r, "/register")
		return
	}
	ctx := r.Context()
	exists, err := s.DB.UserExists(ctx, f.Username, f.Email)
	if err != nil {
		s.serverError(w, r, "check user exists", err)
		return
	}
	if exists {
		s.Flashes.Add(w, r, flashDanger, "Username or email already exists")
		redirect(w, r, "/register")
		return
	}

	u := &db.User{Username: f.Username, Email: f.Email}
	if err := u.SetPassword(f.Password); err != nil {
		s.serverError(w, r, "hash password", err)
		return
	}
	if err := s.DB.CreateUser(ctx, u); err != nil {
		if errors.Is(err, db.ErrConflict) {
			s.Flashes.Add(w, r, flashDanger, "Username or email already exists")
			redirect(w, r, "/register")
			return
		}
		s.serverError(w, r, "create user", err)
		return
	}
	s.Logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	if s.Metrics != nil {
		s.Metrics.Registrations.Inc()
	}
	s.Flashes.Add(w, r, flashSuccess, "Registration successful. Please log in.")
	redirect(w, r, "/login")
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", "Log in", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f := parseLoginForm(r)
	fail := func() {
		s.observeLogin("failure")
		s.Flashes.Add(w, r, flashDanger, "Invalid username or password")
		redirect(w, r, "/login")
	}
	if f.Username == "" || f.Password == "" {
		fail()
		return
	}

	u, ok, err := s.DB.GetUserByUsername(r.Context(), f.Username)
	if err != nil {
		s.serverError(w, r, "load user", err)
		return
	}
	if !ok || !u.CheckPassword(f.Password) {
		s.Logger.Warn("login failed", "username", f.Username, "remote_ip", clientIP(r))
		fail()
		return
	}

	if err := s.Sessions.Login(w, r, u); err != nil {
		s.serverError(w, r, "create session", err)
		return
	}
	s.observeLogin("success")
	s.Flashes.Add(w, r, flashSuccess, "Logged in successfully.")
	redirect(w, r, "/")
}

func (s *Server) observeLogin(result string) {
	if s.Metrics != nil {
		s.Metrics.Logins.WithLabelValues(result).Inc()
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Sessions.Logout(w, r)
	s.Flashes.Add(w, r, flashInfo, "You have been logged out.")
	redirect(w, r, "/")
}
