package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/database"
	"github.com/colefield/tablefinder/internal/store"
)

func setupSessionMiddleware(t *testing.T) (*store.SessionStore, *store.UserStore, func(http.Handler) http.Handler) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ss := store.NewSessionStore(db)
	return ss, store.NewUserStore(db), LoadSession(ss, slog.Default())
}

func TestLoadSessionCreatesOnFirstVisit(t *testing.T) {
	_, _, mw := setupSessionMiddleware(t)

	var seen bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = true
		sess := auth.SessionFromContext(r.Context())
		if sess == nil {
			t.Fatal("expected session in context")
		}
		if len(sess.RecentlyViewed) != 0 {
			t.Errorf("new session recently_viewed = %v, want empty", sess.RecentlyViewed)
		}
		if sess.UserID != nil || sess.IsAdmin {
			t.Error("new session should be anonymous")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if !seen {
		t.Fatal("handler not invoked")
	}
	cookies := rec.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == SessionCookie && c.Value != "" {
			found = true
			if !c.HttpOnly {
				t.Error("session cookie should be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set on first visit")
	}
}

func TestLoadSessionReusesExisting(t *testing.T) {
	ss, _, mw := setupSessionMiddleware(t)

	existing, err := ss.Create()
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		if sess == nil || sess.ID != existing.ID {
			t.Errorf("expected session %d, got %+v", existing.ID, sess)
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: existing.Token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestLoadSessionReplacesUnknownToken(t *testing.T) {
	_, _, mw := setupSessionMiddleware(t)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := auth.SessionFromContext(r.Context())
		if sess == nil {
			t.Fatal("expected a fresh session for an unknown token")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var replaced bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie && c.Value != "stale-token" && c.Value != "" {
			replaced = true
		}
	}
	if !replaced {
		t.Error("expected a fresh session cookie")
	}
}

func TestRequireAdmin(t *testing.T) {
	ss, us, mw := setupSessionMiddleware(t)

	protected := mw(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	// Anonymous session: redirected to login.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Errorf("anonymous status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("redirect location = %q, want /login", loc)
	}

	// Admin session passes.
	u, _ := us.Create("admin", "hash", true)
	sess, _ := ss.Create()
	ss.SetUser(sess.ID, u.ID, true)
	req := httptest.NewRequest("GET", "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token})
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireAdminRejectsNonAdminUser(t *testing.T) {
	ss, us, mw := setupSessionMiddleware(t)

	protected := mw(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	u, _ := us.Create("mortal", "hash", false)
	sess, _ := ss.Create()
	ss.SetUser(sess.ID, u.ID, false)
	req := httptest.NewRequest("GET", "/admin/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token})
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("non-admin status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
}
