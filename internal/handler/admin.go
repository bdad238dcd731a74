package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/colefield/tablefinder/internal/auth"
	"github.com/colefield/tablefinder/internal/store"
)

type AdminHandler struct {
	restaurantStore *store.RestaurantStore
	categoryStore   *store.CategoryStore
	clickStore      *store.ClickStore
	suggestionStore *store.SuggestionStore
	userStore       *store.UserStore
	logger          *slog.Logger
}

func NewAdminHandler(
	rs *store.RestaurantStore,
	cs *store.CategoryStore,
	ks *store.ClickStore,
	sg *store.SuggestionStore,
	us *store.UserStore,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		restaurantStore: rs,
		categoryStore:   cs,
		clickStore:      ks,
		suggestionStore: sg,
		userStore:       us,
		logger:          logger,
	}
}

func (h *AdminHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.restaurantStore.List()
	if err != nil {
		h.internalError(w, "list restaurants", err)
		return
	}
	categories, err := h.categoryStore.List()
	if err != nil {
		h.internalError(w, "list categories", err)
		return
	}
	clicks, err := h.clickStore.List()
	if err != nil {
		h.internalError(w, "list clicks", err)
		return
	}
	suggestions, err := h.suggestionStore.List()
	if err != nil {
		h.internalError(w, "list suggestions", err)
		return
	}

	open := 0
	for _, s := range suggestions {
		if !s.Handled {
			open++
		}
	}

	render(w, h.logger, "admin.html", map[string]any{
		"RestaurantCount":     len(restaurants),
		"CategoryCount":       len(categories),
		"ClickCount":          len(clicks),
		"OpenSuggestionCount": open,
	})
}

// Restaurants

func (h *AdminHandler) Restaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.restaurantStore.List()
	if err != nil {
		h.internalError(w, "list restaurants", err)
		return
	}
	for i := range restaurants {
		cats, err := h.restaurantStore.Categories(restaurants[i].ID)
		if err != nil {
			h.internalError(w, "list restaurant categories", err)
			return
		}
		restaurants[i].Categories = cats
	}

	categories, err := h.categoryStore.List()
	if err != nil {
		h.internalError(w, "list categories", err)
		return
	}

	render(w, h.logger, "admin_restaurants.html", map[string]any{
		"Restaurants": restaurants,
		"Categories":  categories,
	})
}

func (h *AdminHandler) CreateRestaurant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusUnprocessableEntity)
		return
	}
	_, err := h.restaurantStore.Create(
		name,
		strings.TrimSpace(r.PostFormValue("location")),
		strings.TrimSpace(r.PostFormValue("city")),
		strings.TrimSpace(r.PostFormValue("website")),
	)
	if err != nil {
		h.internalError(w, "create restaurant", err)
		return
	}
	http.Redirect(w, r, "/admin/restaurants", http.StatusSeeOther)
}

func (h *AdminHandler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusUnprocessableEntity)
		return
	}
	restaurant, err := h.restaurantStore.Update(
		id,
		name,
		strings.TrimSpace(r.PostFormValue("location")),
		strings.TrimSpace(r.PostFormValue("city")),
		strings.TrimSpace(r.PostFormValue("website")),
	)
	if err != nil {
		h.internalError(w, "update restaurant", err)
		return
	}
	if restaurant == nil {
		http.Error(w, "Restaurant not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/admin/restaurants", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := h.restaurantStore.Delete(id); err != nil {
		h.internalError(w, "delete restaurant", err)
		return
	}
	http.Redirect(w, r, "/admin/restaurants", http.StatusSeeOther)
}

func (h *AdminHandler) AddRestaurantCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	categoryID, err := strconv.ParseInt(r.PostFormValue("category_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid category", http.StatusUnprocessableEntity)
		return
	}
	if err := h.restaurantStore.AddCategory(id, categoryID); err != nil {
		h.internalError(w, "add restaurant category", err)
		return
	}
	http.Redirect(w, r, "/admin/restaurants", http.StatusSeeOther)
}

func (h *AdminHandler) RemoveRestaurantCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	categoryID, err := strconv.ParseInt(r.PathValue("categoryID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid category", http.StatusNotFound)
		return
	}
	if err := h.restaurantStore.RemoveCategory(id, categoryID); err != nil {
		h.internalError(w, "remove restaurant category", err)
		return
	}
	http.Redirect(w, r, "/admin/restaurants", http.StatusSeeOther)
}

// Categories

func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryStore.List()
	if err != nil {
		h.internalError(w, "list categories", err)
		return
	}
	render(w, h.logger, "admin_categories.html", map[string]any{
		"Categories": categories,
	})
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusUnprocessableEntity)
		return
	}
	if _, err := h.categoryStore.GetOrCreate(name); err != nil {
		h.internalError(w, "create category", err)
		return
	}
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	if name == "" {
		http.Error(w, "Name is required", http.StatusUnprocessableEntity)
		return
	}
	category, err := h.categoryStore.Update(id, name)
	if err != nil {
		h.internalError(w, "update category", err)
		return
	}
	if category == nil {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := h.categoryStore.Delete(id); err != nil {
		h.internalError(w, "delete category", err)
		return
	}
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// Clicks

func (h *AdminHandler) Clicks(w http.ResponseWriter, r *http.Request) {
	clicks, err := h.clickStore.List()
	if err != nil {
		h.internalError(w, "list clicks", err)
		return
	}
	render(w, h.logger, "admin_clicks.html", map[string]any{
		"Clicks": clicks,
	})
}

func (h *AdminHandler) DeleteClick(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := h.clickStore.Delete(id); err != nil {
		h.internalError(w, "delete click", err)
		return
	}
	http.Redirect(w, r, "/admin/clicks", http.StatusSeeOther)
}

// Suggestions

func (h *AdminHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.suggestionStore.List()
	if err != nil {
		h.internalError(w, "list suggestions", err)
		return
	}
	render(w, h.logger, "admin_suggestions.html", map[string]any{
		"Suggestions": suggestions,
	})
}

func (h *AdminHandler) ToggleSuggestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	suggestion, err := h.suggestionStore.GetByID(id)
	if err != nil {
		h.internalError(w, "get suggestion", err)
		return
	}
	if suggestion == nil {
		http.Error(w, "Suggestion not found", http.StatusNotFound)
		return
	}
	if err := h.suggestionStore.SetHandled(id, !suggestion.Handled); err != nil {
		h.internalError(w, "toggle suggestion", err)
		return
	}
	http.Redirect(w, r, "/admin/suggestions", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteSuggestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := h.suggestionStore.Delete(id); err != nil {
		h.internalError(w, "delete suggestion", err)
		return
	}
	http.Redirect(w, r, "/admin/suggestions", http.StatusSeeOther)
}

// Users

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.List()
	if err != nil {
		h.internalError(w, "list users", err)
		return
	}
	render(w, h.logger, "admin_users.html", map[string]any{
		"Users": users,
	})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		h.renderUsersError(w, "Username and password are required.")
		return
	}

	existing, err := h.userStore.GetByUsername(username)
	if err != nil {
		h.internalError(w, "look up user", err)
		return
	}
	if existing != nil {
		h.renderUsersError(w, "Username is already taken.")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.internalError(w, "hash password", err)
		return
	}
	if _, err := h.userStore.Create(username, hash, r.PostFormValue("is_admin") == "1"); err != nil {
		h.internalError(w, "create user", err)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (h *AdminHandler) renderUsersError(w http.ResponseWriter, msg string) {
	users, err := h.userStore.List()
	if err != nil {
		h.internalError(w, "list users", err)
		return
	}
	renderStatus(w, h.logger, http.StatusUnprocessableEntity, "admin_users.html", map[string]any{
		"Users": users,
		"Error": msg,
	})
}

func (h *AdminHandler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	password := r.PostFormValue("password")
	if password == "" {
		h.renderUsersError(w, "Password cannot be empty.")
		return
	}

	user, err := h.userStore.GetByID(id)
	if err != nil {
		h.internalError(w, "get user", err)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.internalError(w, "hash password", err)
		return
	}
	if err := h.userStore.SetPassword(id, hash); err != nil {
		h.internalError(w, "set password", err)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (h *AdminHandler) ToggleUserAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	user, err := h.userStore.GetByID(id)
	if err != nil {
		h.internalError(w, "get user", err)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err := h.userStore.SetAdmin(id, !user.IsAdmin); err != nil {
		h.internalError(w, "toggle user admin", err)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		http.Error(w, "Invalid id", http.StatusNotFound)
		return
	}
	if sess := auth.SessionFromContext(r.Context()); sess != nil && sess.UserID != nil && *sess.UserID == id {
		http.Error(w, "Cannot delete the signed-in user", http.StatusUnprocessableEntity)
		return
	}
	if err := h.userStore.Delete(id); err != nil {
		h.internalError(w, "delete user", err)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
