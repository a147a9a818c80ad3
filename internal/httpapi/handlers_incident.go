package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"traveldiary/internal/db"
	"traveldiary/internal/geocode"
	"traveldiary/internal/metrics"
)

func (s *Server) handleReportIncidentForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "report_incident", "Report incident", nil)
}

func (s *Server) handleReportIncident(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r, "/report_incident") {
		return
	}
	f, err := parseIncidentForm(r)
	if err != nil {
		s.Flashes.Add(w, r, flashDanger, validationMessage(err))
		redirect(w, r, "/report_incident")
		return
	}
	photo, ok := s.savePhoto(w, r, "/report_incident")
	if !ok {
		return
	}

	ctx := r.Context()
	u := principal(r)
	inc := &db.Incident{
		IncidentType:  f.IncidentType,
		Location:      f.Location,
		PhotoFilename: photo,
		Description:   f.Description,
		RiskCategory:  f.RiskCategory,
		UserID:        u.ID,
	}
	if pt := s.geocode(ctx, f.Location); pt != nil {
		inc.Latitude = &pt.Latitude
		inc.Longitude = &pt.Longitude
	}
	if err := s.DB.CreateIncident(ctx, inc); err != nil {
		s.discardPhoto(photo)
		s.serverError(w, r, "create incident", err)
		return
	}
	s.Logger.Info("incident reported", "incident_id", inc.ID, "user_id", u.ID, "geocoded", inc.HasCoordinates())
	if s.Metrics != nil {
		s.Metrics.Incidents.Inc()
	}
	s.Flashes.Add(w, r, flashSuccess, "Incident reported successfully. Awaiting admin approval.")
	redirect(w, r, "/dashboard")
}

// geocode resolves location once. Any failure is logged and yields nil so
// the report is stored without coordinates.
func (s *Server) geocode(ctx context.Context, location string) *geocode.Point {
	if s.Geocoder == nil {
		s.Metrics.ObserveGeocode(metrics.GeocodeSkipped, 0)
		return nil
	}
	start := time.Now()
	pt, err := s.Geocoder.Lookup(ctx, location)
	dur := time.Since(start)
	switch {
	case err == nil:
		s.Metrics.ObserveGeocode(metrics.GeocodeOK, dur)
		return pt
	case errors.Is(err, geocode.ErrNoResults):
		s.Metrics.ObserveGeocode(metrics.GeocodeEmpty, dur)
		s.Logger.Warn("geocoding found no match", "provider", s.Geocoder.Name(), "location", location)
	default:
		s.Metrics.ObserveGeocode(metrics.GeocodeFailed, dur)
		s.Logger.Warn("geocoding failed", "provider", s.Geocoder.Name(), "location", location, "err", err, "duration_ms", dur.Milliseconds())
	}
	return nil
}
