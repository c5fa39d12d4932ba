package auth

import (
	"context"
	"net/http"
	"strconv"

	"log/slog"

	"baseapp/internal/users"
	"baseapp/internal/web"
)

// UserLoader supplies the authoritative user record for privilege checks.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
}

type Middleware struct {
	Tokens *TokenService
	Users  UserLoader
	Logger *slog.Logger
}

const (
	loginPath = "/auth/login"
	homePath  = "/"
)

func viewerContext(r *http.Request, claims *Claims) context.Context {
	return web.WithViewer(r.Context(), &web.Viewer{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     string(claims.Role),
	})
}

// WithUser attaches the verified identity when a valid cookie is present and
// continues anonymously otherwise. Public pages use it for personalization.
func (m *Middleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.Tokens.Verify(c.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(viewerContext(r, claims)))
	})
}

// RequireLogin redirects to the login page when the cookie is absent or
// fails verification for any reason.
func (m *Middleware) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(CookieName)
		if err != nil || c.Value == "" {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		claims, err := m.Tokens.Verify(c.Value)
		if err != nil {
			m.Logger.Info("login required", "path", r.URL.Path, "err", err)
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(viewerContext(r, claims)))
	})
}

// RequireRole verifies the cookie and then loads the user row, comparing the
// stored role: the token's role claim is trusted for identity only. A
// failed check redirects home rather than to the login page so the route
// does not advertise its privilege requirement.
func (m *Middleware) RequireRole(role users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := m.verifyOrRedirect(w, r)
			if !ok {
				return
			}
			user, err := m.Users.GetByID(r.Context(), claims.UserID)
			if err != nil || user.Role != role {
				http.Redirect(w, r, homePath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(viewerContext(r, claims)))
		})
	}
}

// RequireOwner compares the {id} path value against the authenticated id.
func (m *Middleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.verifyOrRedirect(w, r)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id != claims.UserID {
			http.Redirect(w, r, homePath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(viewerContext(r, claims)))
	})
}

// verifyOrRedirect implements the shared policy of the strict middlewares:
// malformed or badly signed tokens go to the login page, an expired token
// goes home.
func (m *Middleware) verifyOrRedirect(w http.ResponseWriter, r *http.Request) (*Claims, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return nil, false
	}
	claims, err := m.Tokens.Verify(c.Value)
	if err != nil {
		m.Logger.Info("token rejected", "path", r.URL.Path, "err", err)
		if err == ErrTokenExpired {
			http.Redirect(w, r, homePath, http.StatusSeeOther)
		} else {
			http.Redirect(w, r, loginPath, http.StatusSeeOther)
		}
		return nil, false
	}
	return claims, true
}
