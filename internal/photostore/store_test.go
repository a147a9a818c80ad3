package photostore

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveSanitizesAndPrefixes(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 1<<20)
	require.NoError(t, err)

	name, err := s.Save("../../evil dir/My Photo.JPG", strings.NewReader("img"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_My_Photo.JPG"), name)
	assert.Equal(t, filepath.Base(name), name)

	b, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "img", string(b))

	again, err := s.Save("My Photo.JPG", strings.NewReader("other"))
	require.NoError(t, err)
	assert.NotEqual(t, name, again)
}

func TestSaveRejectsTypeAndSize(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 4)
	require.NoError(t, err)

	_, err = s.Save("script.sh", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Save("big.png", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized upload must be removed")
}

func TestHandlerServesOnlyStoredFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 0)
	require.NoError(t, err)
	name, err := s.Save("a.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	h := http.StripPrefix("/uploads/", s.Handler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, 0)
	require.NoError(t, err)
	name, err := s.Save("a.gif", strings.NewReader("gif"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(name), "removing twice is fine")
	assert.Error(t, s.Remove("../"+name))
	assert.Error(t, s.Remove(""))
}
