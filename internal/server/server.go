package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/colefield/tablefinder/internal/handler"
	"github.com/colefield/tablefinder/internal/middleware"
	"github.com/colefield/tablefinder/internal/store"
	"github.com/colefield/tablefinder/internal/websocket"
	"github.com/colefield/tablefinder/web"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

// Server owns the stores, handlers and the shared rate limiter, and
// assembles them into a routable HTTP handler.
type Server struct {
	RestaurantStore *store.RestaurantStore
	CategoryStore   *store.CategoryStore
	ClickStore      *store.ClickStore
	SuggestionStore *store.SuggestionStore
	UserStore       *store.UserStore
	SessionStore    *store.SessionStore

	RateLimiter *middleware.RateLimiter
	Hub         *websocket.Hub

	listing    *handler.ListingHandler
	redirect   *handler.RedirectHandler
	suggestion *handler.SuggestionHandler
	auth       *handler.AuthHandler
	admin      *handler.AdminHandler
	logger     *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	s := &Server{
		RestaurantStore: store.NewRestaurantStore(db),
		CategoryStore:   store.NewCategoryStore(db),
		ClickStore:      store.NewClickStore(db),
		SuggestionStore: store.NewSuggestionStore(db),
		UserStore:       store.NewUserStore(db),
		SessionStore:    store.NewSessionStore(db),
		RateLimiter:     middleware.NewRateLimiter(),
		Hub:             websocket.NewHub(logger.With("component", "websocket")),
		logger:          logger,
	}

	s.listing = handler.NewListingHandler(s.RestaurantStore, s.CategoryStore, logger.With("component", "listing"))
	s.redirect = handler.NewRedirectHandler(s.RestaurantStore, s.ClickStore, s.SessionStore, s.Hub, logger.With("component", "redirect"))
	s.suggestion = handler.NewSuggestionHandler(s.SuggestionStore, s.Hub, logger.With("component", "suggestion"))
	s.auth = handler.NewAuthHandler(s.UserStore, s.SessionStore, logger.With("component", "auth"))
	s.admin = handler.NewAdminHandler(s.RestaurantStore, s.CategoryStore, s.ClickStore, s.SuggestionStore, s.UserStore, logger.With("component", "admin"))
	return s
}

// Router builds the full route table. Every route runs behind the
// request logger and the session loader; the admin surface additionally
// sits behind RequireAdmin.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.listing.Index)
	mux.HandleFunc("GET /restaurants/{id}/menu", s.redirect.Menu)
	mux.HandleFunc("GET /suggestion", s.suggestion.Form)
	mux.HandleFunc("POST /suggestion", s.suggestion.Submit)
	mux.HandleFunc("GET /login", s.auth.LoginPage)
	mux.Handle("POST /login", middleware.RateLimit(s.RateLimiter, middleware.RealIP, loginRateLimit, loginRateWindow)(http.HandlerFunc(s.auth.Login)))
	mux.HandleFunc("GET /logout", s.auth.Logout)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static)))

	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /admin", s.admin.Dashboard)
	adminMux.HandleFunc("GET /admin/{$}", s.admin.Dashboard)
	adminMux.Handle("GET /admin/ws", websocket.Handle(s.Hub, s.logger.With("component", "websocket")))

	adminMux.HandleFunc("GET /admin/restaurants", s.admin.Restaurants)
	adminMux.HandleFunc("POST /admin/restaurants", s.admin.CreateRestaurant)
	adminMux.HandleFunc("POST /admin/restaurants/{id}/update", s.admin.UpdateRestaurant)
	adminMux.HandleFunc("POST /admin/restaurants/{id}/delete", s.admin.DeleteRestaurant)
	adminMux.HandleFunc("POST /admin/restaurants/{id}/categories", s.admin.AddRestaurantCategory)
	adminMux.HandleFunc("POST /admin/restaurants/{id}/categories/{categoryID}/remove", s.admin.RemoveRestaurantCategory)

	adminMux.HandleFunc("GET /admin/categories", s.admin.Categories)
	adminMux.HandleFunc("POST /admin/categories", s.admin.CreateCategory)
	adminMux.HandleFunc("POST /admin/categories/{id}/update", s.admin.UpdateCategory)
	adminMux.HandleFunc("POST /admin/categories/{id}/delete", s.admin.DeleteCategory)

	adminMux.HandleFunc("GET /admin/clicks", s.admin.Clicks)
	adminMux.HandleFunc("POST /admin/clicks/{id}/delete", s.admin.DeleteClick)

	adminMux.HandleFunc("GET /admin/suggestions", s.admin.Suggestions)
	adminMux.HandleFunc("POST /admin/suggestions/{id}/toggle", s.admin.ToggleSuggestion)
	adminMux.HandleFunc("POST /admin/suggestions/{id}/delete", s.admin.DeleteSuggestion)

	adminMux.HandleFunc("GET /admin/users", s.admin.Users)
	adminMux.HandleFunc("POST /admin/users", s.admin.CreateUser)
	adminMux.HandleFunc("POST /admin/users/{id}/password", s.admin.ResetUserPassword)
	adminMux.HandleFunc("POST /admin/users/{id}/toggle-admin", s.admin.ToggleUserAdmin)
	adminMux.HandleFunc("POST /admin/users/{id}/delete", s.admin.DeleteUser)

	mux.Handle("/admin/", middleware.RequireAdmin(adminMux))
	mux.Handle("/admin", middleware.RequireAdmin(adminMux))

	var h http.Handler = mux
	h = middleware.LoadSession(s.SessionStore, s.logger)(h)
	h = middleware.RequestLogger(s.logger)(h)
	return h
}
