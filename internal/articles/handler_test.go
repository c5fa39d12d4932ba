package articles

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baseapp/internal/web"
)

type fakeRepo struct {
	articles map[int64]*Article
	created  []*Article
	updated  []*Article
	deleted  []int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{articles: map[int64]*Article{}}
}

func (f *fakeRepo) ListPublished(context.Context) ([]Article, error) {
	var out []Article
	for _, a := range f.articles {
		if a.Published {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListDrafts(context.Context) ([]Article, error) {
	var out []Article
	for _, a := range f.articles {
		if !a.Published {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*Article, error) {
	if a, ok := f.articles[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) Create(_ context.Context, a *Article) error {
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, a)
	f.articles[a.ID] = a
	return nil
}

func (f *fakeRepo) Update(_ context.Context, a *Article) error {
	f.updated = append(f.updated, a)
	f.articles[a.ID] = a
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.articles[id]; !ok {
		return ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func testHandler(t *testing.T, repo Repository) *Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	render, err := web.NewRenderer(logger, "test")
	require.NoError(t, err)
	return &Handler{Store: repo, Render: render, Logger: logger}
}

func postForm(path string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestCreateRejectsOverlongTitleAndEchoesInput(t *testing.T) {
	repo := newFakeRepo()
	h := testHandler(t, repo)

	longTitle := strings.Repeat("a", 201)
	w := httptest.NewRecorder()
	h.Create(w, postForm("/articles/create", url.Values{
		"title":   {longTitle},
		"content": {"some content"},
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Title should not exceed 200 characters.")
	assert.Contains(t, body, longTitle)
	assert.Contains(t, body, "some content")
	assert.Empty(t, repo.created)
}

func TestCreateRejectsDisallowedCharacters(t *testing.T) {
	repo := newFakeRepo()
	h := testHandler(t, repo)

	w := httptest.NewRecorder()
	h.Create(w, postForm("/articles/create", url.Values{
		"title":   {"tags <are> not allowed"},
		"content": {"some content"},
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Title should only contain")
	assert.Empty(t, repo.created)
}

func TestCreateSetsOwnerFromViewer(t *testing.T) {
	repo := newFakeRepo()
	h := testHandler(t, repo)

	r := postForm("/articles/create", url.Values{
		"title":     {"A fine title"},
		"content":   {"some content"},
		"published": {"on"},
	})
	r = r.WithContext(web.WithViewer(r.Context(), &web.Viewer{ID: 42, Username: "alice"}))
	w := httptest.NewRecorder()
	h.Create(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/articles/1", w.Header().Get("Location"))
	require.Len(t, repo.created, 1)
	require.NotNil(t, repo.created[0].UserID)
	assert.Equal(t, int64(42), *repo.created[0].UserID)
	assert.True(t, repo.created[0].Published)
}

func TestUpdateUncheckedBoxUnpublishes(t *testing.T) {
	repo := newFakeRepo()
	repo.articles[3] = &Article{ID: 3, Title: "Old", Content: "body", Published: true}
	h := testHandler(t, repo)

	r := postForm("/articles/3/update", url.Values{
		"title":   {"New title"},
		"content": {"new body"},
	})
	r.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	h.Update(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, repo.updated, 1)
	assert.False(t, repo.updated[0].Published)
	assert.Equal(t, "New title", repo.updated[0].Title)
}

func TestDetailNotFound(t *testing.T) {
	h := testHandler(t, newFakeRepo())

	r := httptest.NewRequest(http.MethodGet, "/articles/999999", nil)
	r.SetPathValue("id", "999999")
	w := httptest.NewRecorder()
	h.Detail(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRedirectsToList(t *testing.T) {
	repo := newFakeRepo()
	repo.articles[3] = &Article{ID: 3, Title: "Bye"}
	h := testHandler(t, repo)

	r := postForm("/articles/3/delete", url.Values{})
	r.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	h.Delete(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/articles", w.Header().Get("Location"))
	assert.Equal(t, []int64{3}, repo.deleted)
}
