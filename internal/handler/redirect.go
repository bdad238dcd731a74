package handler

import (
	"log/slog"
	"net/http"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/store"
	"github.com/colefield/tablefinder/internal/websocket"
)

type RedirectHandler struct {
	restaurantStore *store.RestaurantStore
	clickStore      *store.ClickStore
	sessionStore    *store.SessionStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewRedirectHandler(rs *store.RestaurantStore, cs *store.ClickStore, ss *store.SessionStore, hub *websocket.Hub, logger *slog.Logger) *RedirectHandler {
	return &RedirectHandler{
		restaurantStore: rs,
		clickStore:      cs,
		sessionStore:    ss,
		hub:             hub,
		logger:          logger,
	}
}

// Menu records a click against the restaurant, adds it to the
// session's recently viewed list, and redirects to the restaurant's
// website. The click is recorded before redirecting so a dropped
// connection still counts.
func (h *RedirectHandler) Menu(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid restaurant id", http.StatusNotFound)
		return
	}

	restaurant, err := h.restaurantStore.GetByID(id)
	if err != nil {
		h.logger.Error("get restaurant", "id", id, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if restaurant == nil {
		http.Error(w, "Restaurant not found", http.StatusNotFound)
		return
	}

	if _, err := h.clickStore.Create(id); err != nil {
		h.logger.Error("record click", "id", id, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if sess := auth.SessionFromContext(r.Context()); sess != nil {
		updated, err := h.sessionStore.AppendRecentlyViewed(sess.ID, id)
		if err != nil {
			h.logger.Error("append recently viewed", "session", sess.ID, "error", err)
		} else {
			sess.RecentlyViewed = updated
		}
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.Event{
			Kind: "click",
			ID:   id,
			Detail: map[string]any{
				"name": restaurant.Name,
			},
		})
	}

	if restaurant.Website == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, restaurant.Website, http.StatusSeeOther)
}
