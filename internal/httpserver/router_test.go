package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baseapp/internal/articles"
	"baseapp/internal/auth"
	"baseapp/internal/users"
	"baseapp/internal/web"
)

type stubArticles struct{}

func (stubArticles) ListPublished(context.Context) ([]articles.Article, error) { return nil, nil }
func (stubArticles) ListDrafts(context.Context) ([]articles.Article, error) {
	return []articles.Article{{ID: 1, Title: "Hidden draft", CreatedAt: time.Now()}}, nil
}
func (stubArticles) GetByID(context.Context, int64) (*articles.Article, error) {
	return nil, articles.ErrNotFound
}
func (stubArticles) Create(context.Context, *articles.Article) error { return nil }
func (stubArticles) Update(context.Context, *articles.Article) error { return nil }
func (stubArticles) Delete(context.Context, int64) error             { return nil }

type stubUsers struct{}

func (stubUsers) List(context.Context) ([]users.User, error) { return nil, nil }
func (stubUsers) GetByID(context.Context, int64) (*users.User, error) {
	return nil, users.ErrNotFound
}
func (stubUsers) EmailTaken(context.Context, string, int64) (bool, error) { return false, nil }
func (stubUsers) Update(context.Context, *users.User) error               { return nil }
func (stubUsers) UpdatePassword(context.Context, int64, string) error     { return nil }
func (stubUsers) Delete(context.Context, int64) error                     { return nil }

type stubLoader struct {
	role users.Role
}

func (s stubLoader) GetByID(_ context.Context, id int64) (*users.User, error) {
	return &users.User{ID: id, Role: s.role}, nil
}

func testRouter(t *testing.T, loaderRole users.Role) (http.Handler, *auth.TokenService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	render, err := web.NewRenderer(logger, "test")
	require.NoError(t, err)

	tokens := auth.NewTokenService("test-secret")
	mw := &auth.Middleware{Tokens: tokens, Users: stubLoader{role: loaderRole}, Logger: logger}

	handler := NewRouter(
		render,
		mw,
		&auth.Handler{},
		&users.Handler{Store: stubUsers{}, Render: render, Logger: logger},
		&articles.Handler{Store: stubArticles{}, Render: render, Logger: logger},
	)
	return handler, tokens
}

func TestMissingArticleIsNotFoundButCreateRequiresLogin(t *testing.T) {
	router, _ := testRouter(t, users.RoleStandard)

	// A nonexistent id is a not-found page.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/999999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The create route while anonymous is a login redirect instead.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/articles/create", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestHomeAndAboutArePublic(t *testing.T) {
	router, _ := testRouter(t, users.RoleStandard)

	for _, path := range []string{"/", "/about", "/articles", "/users"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	router, _ := testRouter(t, users.RoleStandard)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no/such/page", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftsRequiresAdmin(t *testing.T) {
	router, tokens := testRouter(t, users.RoleStandard)
	token, err := tokens.Issue(&users.User{ID: 2, Username: "bob", Role: users.RoleStandard})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/articles/drafts", nil)
	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDraftsVisibleToAdmin(t *testing.T) {
	router, tokens := testRouter(t, users.RoleAdmin)
	token, err := tokens.Issue(&users.User{ID: 1, Username: "root", Role: users.RoleAdmin})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/articles/drafts", nil)
	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hidden draft")
}

func TestUserUpdateRequiresOwnership(t *testing.T) {
	router, tokens := testRouter(t, users.RoleStandard)
	token, err := tokens.Issue(&users.User{ID: 7, Username: "alice", Role: users.RoleStandard})
	require.NoError(t, err)

	// Another user's account goes home.
	r := httptest.NewRequest(http.MethodGet, "/users/8/update", nil)
	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// Anonymous goes to the login page.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/8/update", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}
