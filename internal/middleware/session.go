package middleware

import (
	"log/slog"
	"net/http"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/store"
)

// SessionCookie is the name of the opaque session token cookie.
const SessionCookie = "tablefinder_session"

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60, // matches session row expiry
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// ClearSessionCookie expires the session token cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// LoadSession resolves the session cookie into a session row and puts it
// on the request context. A first visit (or an expired/unknown token)
// lazily creates an empty anonymous session and sets the cookie.
func LoadSession(sessionStore *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				sess, err := sessionStore.GetByToken(cookie.Value)
				if err != nil {
					logger.Error("load session", "error", err)
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				if sess != nil {
					next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
					return
				}
			}

			sess, err := sessionStore.Create()
			if err != nil {
				logger.Error("create session", "error", err)
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			SetSessionCookie(w, r, sess.Token)
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

// RequireAdmin gates the admin surface. The admin flag is re-read from
// the session row on every request by LoadSession; nothing is cached
// past that lookup.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
