package articles

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"log/slog"

	"baseapp/internal/forms"
	"baseapp/internal/web"
)

// Repository is the slice of Store the handlers use; tests substitute fakes.
type Repository interface {
	ListPublished(ctx context.Context) ([]Article, error)
	ListDrafts(ctx context.Context) ([]Article, error)
	GetByID(ctx context.Context, id int64) (*Article, error)
	Create(ctx context.Context, a *Article) error
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	Store  Repository
	Render *web.Renderer
	Logger *slog.Logger
}

var titleCharset = regexp.MustCompile(`^[\w'",.!?\- ]+$`)

func articleForm() forms.Form {
	return forms.Form{Fields: []forms.Field{
		{Name: "title", Checks: []forms.Check{
			forms.Required("title", "Title is required."),
			forms.MaxLen("title", 200, "Title should not exceed 200 characters."),
			forms.Matches("title", titleCharset, `Title should only contain letters, numbers, spaces, and '",.!?- characters.`),
		}},
		{Name: "content", Checks: []forms.Check{
			forms.MinLen("content", 3, "Article content must be at least 3 characters."),
			forms.MaxLen("content", 5000, "Article content should not exceed 5000 characters."),
		}},
	}}
}

func (h *Handler) ListPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListPublished(r.Context())
	if err != nil {
		h.Render.Error(w, r, err)
		return
	}
	h.Render.Render(w, r, http.StatusOK, "articles_list.html", web.Data{Title: "Articles", Data: list})
}

// Drafts is the admin-only view of unpublished articles.
func (h *Handler) Drafts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListDrafts(r.Context())
	if err != nil {
		h.Render.Error(w, r, err)
		return
	}
	h.Render.Render(w, r, http.StatusOK, "articles_list.html", web.Data{Title: "Drafts", Data: list})
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	article, ok := h.load(w, r)
	if !ok {
		return
	}
	h.Render.Render(w, r, http.StatusOK, "article_detail.html", web.Data{Title: "Article", Data: article})
}

func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, http.StatusOK, "article_create.html", web.Data{
		Title:  "Create Article",
		Values: url.Values{"published": {"on"}},
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.Render.Error(w, r, err)
		return
	}
	fieldErrs, err := articleForm().Validate(r.Context(), r.PostForm)
	if err != nil {
		h.Render.Error(w, r, err)
		return
	}
	if len(fieldErrs) > 0 {
		h.Render.Render(w, r, http.StatusOK, "article_create.html", web.Data{
			Title:  "Create Article",
			Values: r.PostForm,
			Errors: fieldErrs,
		})
		return
	}

	article := &Article{
		Title:     r.PostForm.Get("title"),
		Content:   r.PostForm.Get("content"),
		Published: r.PostForm.Get("published") != "",
	}
	if viewer, ok := web.ViewerFromContext(r.Context()); ok {
		article.UserID = &viewer.ID
	}
	if err := h.Store.Create(r.Context(), article); err != nil {
		h.Render.Error(w, r, err)
		return
	}
	web.SetFlash(w, "success", "Article has been created.")
	http.Redirect(w, r, "/articles/"+strconv.FormatInt(article.ID, 10), http.StatusSeeOther)
}

func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	article, ok := h.load(w, r)
	if !ok {
		return
	}
	values := url.Values{
		"title":   {article.Title},
		"content": {article.Content},
	}
	if article.Published {
		values.Set("published", "on")
	}
	h.Render.Render(w, r, http.StatusOK, "article_update.html", web.Data{
		Title:  "Update Article",
		Values: values,
		Data:   article.ID,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.Render.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Render.Error(w, r, err)
		return
	}
	fieldErrs, err := articleForm().Validate(r.Context(), r.PostForm)
	if err != nil {
		h.Render.Error(w, r, err)
		return
	}
	if len(fieldErrs) > 0 {
		h.Render.Render(w, r, http.StatusOK, "article_update.html", web.Data{
			Title:  "Update Article",
			Values: r.PostForm,
			Errors: fieldErrs,
			Data:   id,
		})
		return
	}

	article, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if err == ErrNotFound {
			h.Render.NotFound(w, r)
			return
		}
		h.Render.Error(w, r, err)
		return
	}
	article.Title = r.PostForm.Get("title")
	article.Content = r.PostForm.Get("content")
	article.Published = r.PostForm.Get("published") != ""
	if err := h.Store.Update(r.Context(), article); err != nil {
		h.Render.Error(w, r, err)
		return
	}
	web.SetFlash(w, "info", "Article has been updated.")
	http.Redirect(w, r, "/articles/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	article, ok := h.load(w, r)
	if !ok {
		return
	}
	h.Render.Render(w, r, http.StatusOK, "article_delete.html", web.Data{Title: "Delete Article", Data: article})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.Render.NotFound(w, r)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if err == ErrNotFound {
			h.Render.NotFound(w, r)
			return
		}
		h.Render.Error(w, r, err)
		return
	}
	web.SetFlash(w, "info", "Article has been deleted.")
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Article, bool) {
	id, err := pathID(r)
	if err != nil {
		h.Render.NotFound(w, r)
		return nil, false
	}
	article, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if err == ErrNotFound {
			h.Render.NotFound(w, r)
			return nil, false
		}
		h.Render.Error(w, r, err)
		return nil, false
	}
	return article, true
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
