// Package geocode resolves free-text place descriptions to coordinates
// through a Nominatim-compatible search service.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrNoResults is returned when the service knows no place matching the query.
var ErrNoResults = errors.New("geocode: no results")

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Geocoder looks up the best match for a free-text location.
type Geocoder interface {
	Lookup(ctx context.Context, query string) (*Point, error)
	// Name identifies the provider in logs.
	Name() string
}

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "SmartTravelDiaryApp"
	DefaultTimeout   = 5 * time.Second
)

// Options configures a Client. Zero fields take the package defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client queries the /search endpoint and takes the first candidate.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

func New(opt Options) *Client {
	if opt.BaseURL == "" {
		opt.BaseURL = DefaultBaseURL
	}
	if opt.UserAgent == "" {
		opt.UserAgent = DefaultUserAgent
	}
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	hc := opt.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opt.Timeout}
	}
	return &Client{
		http:      hc,
		baseURL:   strings.TrimRight(opt.BaseURL, "/"),
		userAgent: opt.UserAgent,
	}
}

func (c *Client) Name() string { return "nominatim" }

// searchResult is one candidate from /search?format=json. Nominatim encodes
// coordinates as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup makes exactly one request. Any transport error, non-200 status,
// malformed body or empty result list is returned as an error.
func (c *Client) Lookup(ctx context.Context, query string) (*Point, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("geocode: empty query")
	}

	u := c.baseURL + "/search?" + url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return parsePoint(results[0])
}

func parsePoint(r searchResult) (*Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("geocode: invalid latitude %q", r.Lat)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("geocode: invalid longitude %q", r.Lon)
	}
	return &Point{Latitude: lat, Longitude: lon}, nil
}
