package handler

import (
	"log/slog"
	"net/http"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/model"
	"github.com/colefield/tablefinder/internal/store"
)

type ListingHandler struct {
	restaurantStore *store.RestaurantStore
	categoryStore   *store.CategoryStore
	logger          *slog.Logger
}

func NewListingHandler(rs *store.RestaurantStore, cs *store.CategoryStore, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{restaurantStore: rs, categoryStore: cs, logger: logger}
}

// Index renders the restaurant listing, optionally filtered to
// restaurants in at least one of the requested categories.
func (h *ListingHandler) Index(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query()["categories"]

	restaurants, err := h.restaurantStore.ListByCategoryNames(selected)
	if err != nil {
		h.logger.Error("list restaurants", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	categories, err := h.categoryStore.List()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	var recent []model.Restaurant
	if sess := auth.SessionFromContext(r.Context()); sess != nil && len(sess.RecentlyViewed) > 0 {
		recent, err = h.restaurantStore.ListByIDs(sess.RecentlyViewed)
		if err != nil {
			h.logger.Error("resolve recently viewed", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
	}

	selectedSet := make(map[string]bool, len(selected))
	for _, name := range selected {
		selectedSet[name] = true
	}

	render(w, h.logger, "index.html", map[string]any{
		"Restaurants":    restaurants,
		"Categories":     categories,
		"Selected":       selectedSet,
		"RecentlyViewed": recent,
		"Message":        r.URL.Query().Get("message"),
	})
}
