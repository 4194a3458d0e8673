package history

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPHandler struct {
	history Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(historyService Service) *HTTPHandler {
	return &HTTPHandler{history: historyService}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/history/sessions/", h.handleSessionRounds)
}

// GET /api/history/sessions/{sessionID}/rounds?limit=N
func (h *HTTPHandler) handleSessionRounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/history/sessions/")
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "rounds" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	sessionID := parts[0]

	limit := parseLimit(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	rounds, err := h.history.ListRounds(ctx, sessionID, limit)
	if err != nil {
		log.Printf("[History] list rounds failed for %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, "query rounds failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": rounds,
	})
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
