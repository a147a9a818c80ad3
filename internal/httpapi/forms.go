package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"traveldiary/internal/validate"
)

type registerForm struct {
	Username string `validate:"required,max=80,username" label:"Username"`
	Email    string `validate:"required,max=120,email" label:"Email"`
	Password string `validate:"required" label:"Password"`
}

type loginForm struct {
	Username string
	Password string
}

type diaryForm struct {
	Title       string `validate:"required,max=150" label:"Title"`
	Description string `validate:"required" label:"Description"`
}

type incidentForm struct {
	IncidentType string `validate:"required,max=100" label:"Incident type"`
	Location     string `validate:"required,max=200" label:"Location"`
	Description  string
	RiskCategory string `validate:"max=50" label:"Risk category"`
}

type profileForm struct {
	Username    string `validate:"required,max=80,username" label:"Username"`
	EmailAlerts bool
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

func parseRegisterForm(r *http.Request) (registerForm, error) {
	f := registerForm{
		Username: field(r, "username"),
		Email:    field(r, "email"),
		Password: r.PostFormValue("password"),
	}
	return f, validate.Struct(&f)
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Username: field(r, "username"),
		Password: r.PostFormValue("password"),
	}
}

func parseDiaryForm(r *http.Request) (diaryForm, error) {
	f := diaryForm{
		Title:       field(r, "title"),
		Description: field(r, "description"),
	}
	return f, validate.Struct(&f)
}

func parseIncidentForm(r *http.Request) (incidentForm, error) {
	f := incidentForm{
		IncidentType: field(r, "incident_type"),
		Location:     field(r, "location"),
		Description:  field(r, "description"),
		RiskCategory: field(r, "risk_category"),
	}
	return f, validate.Struct(&f)
}

func parseProfileForm(r *http.Request) (profileForm, error) {
	f := profileForm{
		Username: field(r, "username"),
		// Unchecked boxes are not submitted at all.
		EmailAlerts: r.PostForm.Has("email_alerts"),
	}
	return f, validate.Struct(&f)
}

// validationMessage picks the user-facing message for a failed form.
func validationMessage(err error) string {
	var ve validate.Errors
	if errors.As(err, &ve) {
		return ve.First()
	}
	return "Invalid input."
}

// optionalFile returns the uploaded file for field, or nil when the field
// is absent or empty.
func optionalFile(r *http.Request, name string) (multipart.File, *multipart.FileHeader, error) {
	f, fh, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if fh.Filename == "" || fh.Size == 0 {
		_ = f.Close()
		return nil, nil, nil
	}
	return f, fh, nil
}
