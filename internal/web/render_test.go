package web

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRendererParsesAllPages(t *testing.T) {
	_, err := NewRenderer(testLogger(), "test")
	require.NoError(t, err)
}

func TestRenderShowsViewer(t *testing.T) {
	rn, err := NewRenderer(testLogger(), "test")
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithViewer(r.Context(), &Viewer{ID: 1, Username: "alice"}))
	w := httptest.NewRecorder()
	rn.Render(w, r, http.StatusOK, "home.html", Data{Title: "Home"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Welcome back, alice.")
	assert.Contains(t, body, "Log Out")
	assert.NotContains(t, body, "Sign Up")
}

func TestFlashIsOneShot(t *testing.T) {
	rn, err := NewRenderer(testLogger(), "test")
	require.NoError(t, err)

	// A mutation sets the flash.
	w := httptest.NewRecorder()
	SetFlash(w, "success", "Account Created.")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	// The next rendered page shows it and clears the cookie.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	rn.Render(w, r, http.StatusOK, "home.html", Data{Title: "Home"})

	assert.Contains(t, w.Body.String(), "Account Created.")
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie {
			cleared = c.MaxAge < 0
		}
	}
	assert.True(t, cleared)
}

func TestErrorPageHidesDetailInProduction(t *testing.T) {
	boom := errors.New("pq: connection refused")

	rn, err := NewRenderer(testLogger(), "development")
	require.NoError(t, err)
	w := httptest.NewRecorder()
	rn.Error(w, httptest.NewRequest(http.MethodGet, "/", nil), boom)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	rn, err = NewRenderer(testLogger(), "production")
	require.NoError(t, err)
	w = httptest.NewRecorder()
	rn.Error(w, httptest.NewRequest(http.MethodGet, "/", nil), boom)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestNotFound(t *testing.T) {
	rn, err := NewRenderer(testLogger(), "test")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	rn.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
