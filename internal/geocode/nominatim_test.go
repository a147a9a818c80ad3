package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: time.Second})
}

func TestLookupTakesFirstResult(t *testing.T) {
	var gotQuery, gotUA, gotFormat string
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[{"lat":"48.8566","lon":"2.3522","display_name":"Paris"},{"lat":"33.66","lon":"-95.55"}]`))
	})

	p, err := c.Lookup(context.Background(), "  Paris ")
	require.NoError(t, err)
	assert.InDelta(t, 48.8566, p.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, p.Longitude, 1e-9)
	assert.Equal(t, "Paris", gotQuery)
	assert.Equal(t, "json", gotFormat)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestLookupFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		},
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":`))
		},
		"bad latitude": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"2"}]`))
		},
		"out of range": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"91","lon":"2"}]`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := serve(t, h).Lookup(context.Background(), "somewhere")
			require.Error(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestLookupNoResultsSentinel(t *testing.T) {
	c := serve(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := c.Lookup(context.Background(), "atlantis")
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestLookupTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := c.Lookup(context.Background(), "Paris")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLookupRejectsEmptyQuery(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Lookup(context.Background(), "   ")
	require.Error(t, err)
	var g Geocoder = c
	require.Equal(t, "nominatim", g.Name())
}
