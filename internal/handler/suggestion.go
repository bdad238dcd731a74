package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/colefield/tablefinder/internal/store"
	"github.com/colefield/tablefinder/internal/websocket"
)

type SuggestionHandler struct {
	suggestionStore *store.SuggestionStore
	hub             *websocket.Hub
	logger          *slog.Logger
}

func NewSuggestionHandler(ss *store.SuggestionStore, hub *websocket.Hub, logger *slog.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestionStore: ss, hub: hub, logger: logger}
}

func (h *SuggestionHandler) Form(w http.ResponseWriter, r *http.Request) {
	render(w, h.logger, "suggestion.html", map[string]any{})
}

func (h *SuggestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.PostFormValue("suggestion"))
	if text == "" {
		renderStatus(w, h.logger, http.StatusUnprocessableEntity, "suggestion.html", map[string]any{
			"Error": "Suggestion cannot be empty.",
		})
		return
	}

	suggestion, err := h.suggestionStore.Create(text)
	if err != nil {
		h.logger.Error("create suggestion", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.Event{Kind: "suggestion", ID: suggestion.ID})
	}

	http.Redirect(w, r, "/?message=Thanks+for+the+suggestion!", http.StatusSeeOther)
}
