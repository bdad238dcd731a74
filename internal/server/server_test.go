package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/database"
	"github.com/colefield/tablefinder/internal/model"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(db, logger)
	return s, s.Router()
}

// do runs a request through the router, carrying any cookies from a
// previous response.
func do(t *testing.T, router http.Handler, method, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookies(rec *httptest.ResponseRecorder) []*http.Cookie {
	return rec.Result().Cookies()
}

func seedRestaurant(t *testing.T, s *Server, name, website string, categories ...string) *model.Restaurant {
	t.Helper()
	r, err := s.RestaurantStore.Create(name, "123 Main St", "Chattanooga", website)
	if err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	for _, name := range categories {
		c, err := s.CategoryStore.GetOrCreate(name)
		if err != nil {
			t.Fatalf("create category: %v", err)
		}
		if err := s.RestaurantStore.AddCategory(r.ID, c.ID); err != nil {
			t.Fatalf("add category: %v", err)
		}
	}
	return r
}

func seedUser(t *testing.T, s *Server, username, password string, isAdmin bool) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := s.UserStore.Create(username, hash, isAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// loginAs walks the real login flow and returns the resulting cookies.
func loginAs(t *testing.T, router http.Handler, username, password string) []*http.Cookie {
	t.Helper()
	first := do(t, router, http.MethodGet, "/login", nil, nil)
	cookies := sessionCookies(first)

	form := url.Values{"username": {username}, "password": {password}}
	rec := do(t, router, http.MethodPost, "/login", form, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	return cookies
}

func TestIndexFilterByCategory(t *testing.T) {
	s, router := newTestServer(t)
	seedRestaurant(t, s, "Pancake House", "https://pancake.example", "Breakfast")
	seedRestaurant(t, s, "Taco Stand", "https://taco.example", "Mexican")

	rec := do(t, router, http.MethodGet, "/?categories=Breakfast", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Pancake House") {
		t.Error("filtered listing should contain Pancake House")
	}
	if strings.Contains(body, "Taco Stand") {
		t.Error("filtered listing should not contain Taco Stand")
	}

	rec = do(t, router, http.MethodGet, "/?categories=Lunch", nil, nil)
	body = rec.Body.String()
	if strings.Contains(body, "Pancake House") || strings.Contains(body, "Taco Stand") {
		t.Error("a category with no members should list nothing")
	}
}

func TestIndexUnfilteredListsAll(t *testing.T) {
	s, router := newTestServer(t)
	seedRestaurant(t, s, "Pancake House", "https://pancake.example", "Breakfast")
	seedRestaurant(t, s, "Taco Stand", "https://taco.example", "Mexican")

	rec := do(t, router, http.MethodGet, "/", nil, nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Pancake House") || !strings.Contains(body, "Taco Stand") {
		t.Error("unfiltered listing should contain every restaurant")
	}
}

func TestIndexSetsSessionCookie(t *testing.T) {
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodGet, "/", nil, nil)

	var found bool
	for _, c := range sessionCookies(rec) {
		if c.Name == "tablefinder_session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("first visit should set a session cookie")
	}
}

func TestMenuRedirectRecordsClick(t *testing.T) {
	s, router := newTestServer(t)
	r := seedRestaurant(t, s, "Pancake House", "https://pancake.example/menu", "Breakfast")

	rec := do(t, router, http.MethodGet, "/restaurants/1/menu", nil, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "https://pancake.example/menu" {
		t.Errorf("Location = %q, want the restaurant website", got)
	}

	count, err := s.ClickStore.CountByRestaurant(r.ID)
	if err != nil {
		t.Fatalf("count clicks: %v", err)
	}
	if count != 1 {
		t.Errorf("click count = %d, want 1", count)
	}
}

func TestMenuUnknownRestaurant(t *testing.T) {
	s, router := newTestServer(t)
	rec := do(t, router, http.MethodGet, "/restaurants/99/menu", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	clicks, err := s.ClickStore.List()
	if err != nil {
		t.Fatalf("list clicks: %v", err)
	}
	if len(clicks) != 0 {
		t.Error("a missed lookup should not record a click")
	}
}

func TestMenuAppendsRecentlyViewed(t *testing.T) {
	s, router := newTestServer(t)
	seedRestaurant(t, s, "Pancake House", "https://pancake.example", "Breakfast")
	seedRestaurant(t, s, "Taco Stand", "https://taco.example", "Mexican")

	first := do(t, router, http.MethodGet, "/", nil, nil)
	cookies := sessionCookies(first)

	do(t, router, http.MethodGet, "/restaurants/2/menu", nil, cookies)
	do(t, router, http.MethodGet, "/restaurants/1/menu", nil, cookies)

	rec := do(t, router, http.MethodGet, "/", nil, cookies)
	body := rec.Body.String()
	idx := strings.Index(body, "Recently viewed")
	if idx < 0 {
		t.Fatal("listing should include the recently viewed section")
	}
	recent := body[idx:]
	if !strings.Contains(recent, "Taco Stand") || !strings.Contains(recent, "Pancake House") {
		t.Error("recently viewed should contain both visited restaurants")
	}
}

func TestSuggestionSubmit(t *testing.T) {
	s, router := newTestServer(t)

	form := url.Values{"suggestion": {"Add The Bluegrass Grill"}}
	rec := do(t, router, http.MethodPost, "/suggestion", form, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "message=") {
		t.Errorf("Location = %q, want a thank-you message parameter", loc)
	}

	suggestions, err := s.SuggestionStore.List()
	if err != nil {
		t.Fatalf("list suggestions: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Suggestion != "Add The Bluegrass Grill" {
		t.Errorf("suggestions = %+v, want the submitted text stored", suggestions)
	}
}

func TestSuggestionBlankRejected(t *testing.T) {
	s, router := newTestServer(t)

	form := url.Values{"suggestion": {"   "}}
	rec := do(t, router, http.MethodPost, "/suggestion", form, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	suggestions, err := s.SuggestionStore.List()
	if err != nil {
		t.Fatalf("list suggestions: %v", err)
	}
	if len(suggestions) != 0 {
		t.Error("blank suggestion should not be stored")
	}
}

func TestLoginSuccessPromotesSession(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)

	cookies := loginAs(t, router, "admin", "hunter22")

	rec := do(t, router, http.MethodGet, "/admin", nil, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin after login status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLoginRedirectsAdminToPanel(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)

	first := do(t, router, http.MethodGet, "/login", nil, nil)
	cookies := sessionCookies(first)

	form := url.Values{"username": {"admin"}, "password": {"hunter22"}}
	rec := do(t, router, http.MethodPost, "/login", form, cookies)
	if loc := rec.Header().Get("Location"); loc != "/admin" {
		t.Errorf("Location = %q, want /admin", loc)
	}
}

func TestLoginFailureLeavesSessionAnonymous(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)

	first := do(t, router, http.MethodGet, "/login", nil, nil)
	cookies := sessionCookies(first)

	for _, form := range []url.Values{
		{"username": {"admin"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"hunter22"}},
	} {
		rec := do(t, router, http.MethodPost, "/login", form, cookies)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
		if !strings.Contains(rec.Body.String(), "Invalid username or password") {
			t.Error("failed login should show the generic error")
		}
	}

	// The session row must still be anonymous.
	rec := do(t, router, http.MethodGet, "/admin", nil, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("admin after failed login status = %d, want a redirect to /login", rec.Code)
	}
}

func TestNonAdminUserCannotReachAdmin(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "mortal", "password1", false)

	cookies := loginAs(t, router, "mortal", "password1")
	rec := do(t, router, http.MethodGet, "/admin", nil, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)

	cookies := loginAs(t, router, "admin", "hunter22")

	rec := do(t, router, http.MethodGet, "/logout", nil, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var cleared bool
	for _, c := range sessionCookies(rec) {
		if c.Name == "tablefinder_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout should expire the session cookie")
	}

	// The old token no longer resolves to an admin session.
	after := do(t, router, http.MethodGet, "/admin", nil, cookies)
	if after.Code != http.StatusSeeOther {
		t.Errorf("admin after logout status = %d, want a redirect", after.Code)
	}
}

func TestAdminCreateRestaurant(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)
	cookies := loginAs(t, router, "admin", "hunter22")

	form := url.Values{
		"name":     {"Bluegrass Grill"},
		"location": {"55 E Main St"},
		"city":     {"Chattanooga"},
		"website":  {"https://bluegrass.example"},
	}
	rec := do(t, router, http.MethodPost, "/admin/restaurants", form, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	restaurants, err := s.RestaurantStore.List()
	if err != nil {
		t.Fatalf("list restaurants: %v", err)
	}
	if len(restaurants) != 1 || restaurants[0].Name != "Bluegrass Grill" {
		t.Errorf("restaurants = %+v, want the new row", restaurants)
	}
}

func TestAdminRestaurantCategoryRoundTrip(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)
	r := seedRestaurant(t, s, "Pancake House", "https://pancake.example")
	c, err := s.CategoryStore.Create("Breakfast")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	cookies := loginAs(t, router, "admin", "hunter22")

	form := url.Values{"category_id": {"1"}}
	rec := do(t, router, http.MethodPost, "/admin/restaurants/1/categories", form, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add category status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	cats, err := s.RestaurantStore.Categories(r.ID)
	if err != nil {
		t.Fatalf("restaurant categories: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != c.ID {
		t.Fatalf("categories = %+v, want [Breakfast]", cats)
	}

	rec = do(t, router, http.MethodPost, "/admin/restaurants/1/categories/1/remove", nil, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("remove category status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	cats, err = s.RestaurantStore.Categories(r.ID)
	if err != nil {
		t.Fatalf("restaurant categories: %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("categories = %+v, want none after removal", cats)
	}
}

func TestAdminToggleSuggestion(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)
	sg, err := s.SuggestionStore.Create("Add more breakfast spots")
	if err != nil {
		t.Fatalf("create suggestion: %v", err)
	}
	cookies := loginAs(t, router, "admin", "hunter22")

	rec := do(t, router, http.MethodPost, "/admin/suggestions/1/toggle", nil, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	got, err := s.SuggestionStore.GetByID(sg.ID)
	if err != nil {
		t.Fatalf("get suggestion: %v", err)
	}
	if !got.Handled {
		t.Error("toggle should mark the suggestion handled")
	}
}

func TestAdminCreateUserDuplicateUsername(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)
	cookies := loginAs(t, router, "admin", "hunter22")

	form := url.Values{"username": {"admin"}, "password": {"other"}, "is_admin": {"1"}}
	rec := do(t, router, http.MethodPost, "/admin/users", form, cookies)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	users, err := s.UserStore.List()
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("users = %d, want the duplicate rejected", len(users))
	}
}

func TestAdminResetUserPassword(t *testing.T) {
	s, router := newTestServer(t)
	seedUser(t, s, "admin", "hunter22", true)
	seedUser(t, s, "mortal", "password1", false)
	cookies := loginAs(t, router, "admin", "hunter22")

	form := url.Values{"password": {"password2"}}
	rec := do(t, router, http.MethodPost, "/admin/users/2/password", form, cookies)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}

	// The old password is dead, the new one logs in.
	first := do(t, router, http.MethodGet, "/login", nil, nil)
	fresh := sessionCookies(first)
	failed := do(t, router, http.MethodPost, "/login", url.Values{"username": {"mortal"}, "password": {"password1"}}, fresh)
	if failed.Code != http.StatusUnauthorized {
		t.Errorf("old password status = %d, want %d", failed.Code, http.StatusUnauthorized)
	}
	loginAs(t, router, "mortal", "password2")
}

func TestAdminCannotDeleteOwnUser(t *testing.T) {
	s, router := newTestServer(t)
	u := seedUser(t, s, "admin", "hunter22", true)
	cookies := loginAs(t, router, "admin", "hunter22")

	rec := do(t, router, http.MethodPost, "/admin/users/1/delete", nil, cookies)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	got, err := s.UserStore.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got == nil {
		t.Error("the signed-in user should survive a self delete attempt")
	}
}

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
