package httpserver

import (
	"net/http"

	"baseapp/internal/articles"
	"baseapp/internal/auth"
	"baseapp/internal/users"
	"baseapp/internal/web"
)

func NewRouter(
	render *web.Renderer,
	mw *auth.Middleware,
	authHandler *auth.Handler,
	userHandler *users.Handler,
	articleHandler *articles.Handler,
) http.Handler {
	mux := http.NewServeMux()

	withUser := mw.WithUser
	public := func(fn http.HandlerFunc) http.Handler { return withUser(fn) }
	loggedIn := func(fn http.HandlerFunc) http.Handler { return mw.RequireLogin(fn) }
	owner := func(fn http.HandlerFunc) http.Handler { return mw.RequireOwner(fn) }
	admin := mw.RequireRole(users.RoleAdmin)

	// Pages
	mux.Handle("GET /{$}", public(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, http.StatusOK, "home.html", web.Data{Title: "Home"})
	}))
	mux.Handle("GET /about", public(func(w http.ResponseWriter, r *http.Request) {
		render.Render(w, r, http.StatusOK, "about.html", web.Data{Title: "About"})
	}))

	// Auth
	mux.Handle("GET /auth/signup", public(authHandler.SignupForm))
	mux.Handle("POST /auth/signup", public(authHandler.Signup))
	mux.Handle("GET /auth/login", public(authHandler.LoginForm))
	mux.Handle("POST /auth/login", public(authHandler.Login))
	mux.Handle("GET /auth/logout", public(authHandler.Logout))
	mux.Handle("GET /auth/activate", public(authHandler.Activate))
	mux.Handle("GET /auth/reset", public(authHandler.ResetRequestForm))
	mux.Handle("POST /auth/reset", public(authHandler.ResetRequest))
	mux.Handle("GET /auth/reset/{token}", public(authHandler.ResetForm))
	mux.Handle("POST /auth/reset/{token}", public(authHandler.Reset))

	// Users: list and detail are public, self-service routes check ownership.
	mux.Handle("GET /users", public(userHandler.ListPage))
	mux.Handle("GET /users/{id}", public(userHandler.Detail))
	mux.Handle("GET /users/{id}/update", owner(userHandler.UpdateForm))
	mux.Handle("POST /users/{id}/update", owner(userHandler.Update))
	mux.Handle("GET /users/{id}/delete", owner(userHandler.DeleteForm))
	mux.Handle("POST /users/{id}/delete", owner(userHandler.Delete))

	// Articles: mutation routes require login but not ownership.
	mux.Handle("GET /articles", public(articleHandler.ListPage))
	mux.Handle("GET /articles/drafts", admin(http.HandlerFunc(articleHandler.Drafts)))
	mux.Handle("GET /articles/create", loggedIn(articleHandler.CreateForm))
	mux.Handle("POST /articles/create", loggedIn(articleHandler.Create))
	mux.Handle("GET /articles/{id}", public(articleHandler.Detail))
	mux.Handle("GET /articles/{id}/update", loggedIn(articleHandler.UpdateForm))
	mux.Handle("POST /articles/{id}/update", loggedIn(articleHandler.Update))
	mux.Handle("GET /articles/{id}/delete", loggedIn(articleHandler.DeleteForm))
	mux.Handle("POST /articles/{id}/delete", loggedIn(articleHandler.Delete))

	// Everything else is a not-found page.
	mux.Handle("/", public(render.NotFound))

	return mux
}
