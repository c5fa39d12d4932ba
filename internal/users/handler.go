package users

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"log/slog"

	"baseapp/internal/forms"
	"baseapp/internal/web"
)

// Repository is the slice of Store the handlers use; tests substitute fakes.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	Store  Repository
	Render *web.Renderer
	Logger *slog.Logger
}

// updateForm validates a profile edit. The uniqueness lookup excludes the
// record under edit, and the password checks only apply when one was
// submitted.
func updateForm(store Repository, id int64) forms.Form {
	return forms.Form{Fields: []forms.Field{
		{Name: "username", Checks: []forms.Check{
			forms.Required("username", "Username cannot be blank."),
		}},
		{Name: "email", Checks: []forms.Check{
			forms.Required("email", "Email cannot be blank."),
			forms.Email("email", "Email format is invalid."),
			forms.Unique("email", "Email is already in use", func(ctx context.Context, value string) (bool, error) {
				return store.EmailTaken(ctx, value, id)
			}),
		}},
		{Name: "password", Checks: forms.Optional("password",
			forms.MinLen("password", 6, "Password must be at least 6 characters."),
			forms.EqualsField("password", "passwordConfirmation", "Password confirmation does not match password"),
		)},
	}}
}

func (h *Handler) ListPage(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context())
	if err != nil {
		h.Render.Error(w, r, err)
		return
	}
	h.Render.Render(w, r, http.StatusOK, "users_list.html", web.Data{Title: "Users", Data: list})
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	h.Render.Render(w, r, http.StatusOK, "user_detail.html", web.Data{Title: "User", Data: user})
}

func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	h.Render.Render(w, r, http.StatusOK, "user_update.html", web.Data{
		Title:  "Update Account",
		Values: url.Values{"username": {user.Username}, "email": {user.Email}},
		Data:   user.ID,
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
	fieldErrs, err := updateForm(h.Store, id).Validate(r.Context(), r.PostForm)
	if err != nil {
		h.Render.Error(w, r, err)
		return
	}
	if len(fieldErrs) > 0 {
		h.Render.Render(w, r, http.StatusOK, "user_update.html", web.Data{
			Title:  "Update Account",
			Values: r.PostForm,
			Errors: fieldErrs,
			Data:   id,
		})
		return
	}

	user, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if err == ErrNotFound {
			h.Render.NotFound(w, r)
			return
		}
		h.Render.Error(w, r, err)
		return
	}
	user.Username = r.PostForm.Get("username")
	user.Email = r.PostForm.Get("email")
	if err := h.Store.Update(r.Context(), user); err != nil {
		if IsUniqueViolation(err) {
			h.Render.Render(w, r, http.StatusOK, "user_update.html", web.Data{
				Title:  "Update Account",
				Values: r.PostForm,
				Errors: []forms.FieldError{{Field: "email", Message: "Email is already in use"}},
				Data:   id,
			})
			return
		}
		h.Render.Error(w, r, err)
		return
	}
	// Blank password means keep the current hash.
	if password := r.PostForm.Get("password"); password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			h.Render.Error(w, r, err)
			return
		}
		if err := h.Store.UpdatePassword(r.Context(), id, hash); err != nil {
			h.Render.Error(w, r, err)
			return
		}
	}
	web.SetFlash(w, "success", "Account Updated.")
	http.Redirect(w, r, "/users/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	user, ok := h.load(w, r)
	if !ok {
		return
	}
	h.Render.Render(w, r, http.StatusOK, "user_delete.html", web.Data{Title: "Delete Account", Data: user})
}

// Delete removes the account. Articles keep their rows; the FK nulls their
// owner.
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
	web.SetFlash(w, "info", "Account Deleted.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*User, bool) {
	id, err := pathID(r)
	if err != nil {
		h.Render.NotFound(w, r)
		return nil, false
	}
	user, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		if err == ErrNotFound {
			h.Render.NotFound(w, r)
			return nil, false
		}
		h.Render.Error(w, r, err)
		return nil, false
	}
	return user, true
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
