package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/middleware"
	"github.com/colefield/tablefinder/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, sessionStore: ss, logger: logger}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, h.logger, "login.html", map[string]any{})
}

// Login verifies the submitted credentials and promotes the current
// session to the matched user. A failed attempt leaves the session
// untouched and returns the same generic error whether the username
// or the password was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	user, err := h.userStore.GetByUsername(username)
	if err != nil {
		h.logger.Error("look up user", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if user == nil || !auth.CheckPassword(user.HashedPassword, password) {
		renderStatus(w, h.logger, http.StatusUnauthorized, "login.html", map[string]any{
			"Error": "Invalid username or password.",
		})
		return
	}

	sess := auth.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("login without session")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if err := h.sessionStore.SetUser(sess.ID, user.ID, user.IsAdmin); err != nil {
		h.logger.Error("bind session to user", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("login", "username", user.Username, "admin", user.IsAdmin)

	if user.IsAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout deletes the server side session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		if err := h.sessionStore.Delete(sess.ID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
