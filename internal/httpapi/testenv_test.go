package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"traveldiary/internal/db"
	"traveldiary/internal/geocode"
	"traveldiary/internal/logging"
	"traveldiary/internal/metrics"
	"traveldiary/internal/photostore"
	"traveldiary/internal/webui"
)

// fakeGeocoder records every lookup and answers with a fixed result.
type fakeGeocoder struct {
	mu    sync.Mutex
	calls []string
	pt    *geocode.Point
	err   error
}

func (f *fakeGeocoder) Lookup(_ context.Context, q string) (*geocode.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.pt, nil
}

func (f *fakeGeocoder) Name() string { return "fake" }

func (f *fakeGeocoder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type testEnv struct {
	t       *testing.T
	DB      *db.DB
	Server  *Server
	URL     string
	Uploads string
	DBPath  string
	client  *http.Client
}

func newTestEnv(t *testing.T, geo geocode.Geocoder) *testEnv {
	t.Helper()
	ctx := context.Background()
	tmp := t.TempDir()

	dbPath := filepath.Join(tmp, "test.db")
	d, err := db.Open(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	uploads := filepath.Join(tmp, "uploads")
	photos, err := photostore.New(uploads, 1<<20)
	require.NoError(t, err)
	pages, err := webui.NewRenderer()
	require.NoError(t, err)

	lg := logging.Discard()
	s := &Server{
		DB:             d,
		Sessions:       &Sessions{DB: d, Logger: lg},
		Flashes:        &Flashes{Key: []byte("test-secret-key-0123456789")},
		Geocoder:       geo,
		Photos:         photos,
		Pages:          pages,
		Metrics:        metrics.New(),
		Logger:         lg,
		MaxUploadBytes: 2 << 20,
	}
	h, err := s.Handler()
	require.NoError(t, err)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testEnv{t: t, DB: d, Server: s, URL: ts.URL, Uploads: photos.Dir(), DBPath: dbPath, client: client}
}

// failInserts makes every INSERT into table abort, through a second
// connection so the server's own handle is untouched.
func (e *testEnv) failInserts(table string) {
	e.t.Helper()
	raw, err := sql.Open("sqlite", "file:"+e.DBPath+"?_pragma=busy_timeout(5000)")
	require.NoError(e.t, err)
	defer raw.Close()
	_, err = raw.Exec(`CREATE TRIGGER fail_` + table + ` BEFORE INSERT ON ` + table +
		` BEGIN SELECT RAISE(ABORT, 'insert disabled'); END`)
	require.NoError(e.t, err)
}

func (e *testEnv) do(req *http.Request) (*http.Response, string) {
	e.t.Helper()
	resp, err := e.client.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, string(b)
}

func (e *testEnv) get(path string) (*http.Response, string) {
	e.t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.URL+path, nil)
	require.NoError(e.t, err)
	return e.do(req)
}

func (e *testEnv) post(path string, form url.Values) (*http.Response, string) {
	e.t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.URL+path, strings.NewReader(form.Encode()))
	require.NoError(e.t, err)
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	return e.do(req)
}

type upload struct {
	Field    string
	Filename string
	Content  []byte
}

func (e *testEnv) postMultipart(path string, form url.Values, files ...upload) (*http.Response, string) {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(e.t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.Field, f.Filename)
		require.NoError(e.t, err)
		_, err = fw.Write(f.Content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.URL+path, &buf)
	require.NoError(e.t, err)
	req.Header.Set("content-type", mw.FormDataContentType())
	return e.do(req)
}

// requireRedirect asserts a 303 to want and returns the body of the page
// it points at, which is where flashes are shown.
func (e *testEnv) requireRedirect(resp *http.Response, want string) string {
	e.t.Helper()
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(e.t, want, resp.Header.Get("Location"))
	next, body := e.get(want)
	if next.StatusCode == http.StatusSeeOther {
		return ""
	}
	return body
}

func (e *testEnv) register(username, email, password string) {
	e.t.Helper()
	resp, _ := e.post("/register", url.Values{"username": {username}, "email": {email}, "password": {password}})
	body := e.requireRedirect(resp, "/login")
	require.Contains(e.t, body, "Registration successful. Please log in.")
}

func (e *testEnv) login(username, password string) {
	e.t.Helper()
	resp, _ := e.post("/login", url.Values{"username": {username}, "password": {password}})
	body := e.requireRedirect(resp, "/")
	require.Contains(e.t, body, "Logged in successfully.")
}

// signup registers and logs in, returning the stored user.
func (e *testEnv) signup(username string) *db.User {
	e.t.Helper()
	e.register(username, username+"@example.com", "pw-"+username)
	e.login(username, "pw-"+username)
	u, ok, err := e.DB.GetUserByUsername(context.Background(), username)
	require.NoError(e.t, err)
	require.True(e.t, ok)
	return u
}

// forgetCookies drops the client's cookies without touching the server.
func (e *testEnv) forgetCookies() {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	e.client.Jar = jar
}
