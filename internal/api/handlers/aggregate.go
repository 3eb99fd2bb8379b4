package handlers

import (
	"net/http"
	"strconv"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AggregateHandler struct {
	aggregates domain.AggregateStore
	profiles   domain.ProfileStore
}

func NewAggregateHandler(aggregates domain.AggregateStore, profiles domain.ProfileStore) *AggregateHandler {
	return &AggregateHandler{aggregates: aggregates, profiles: profiles}
}

// Get returns the latest aggregate for a document, filing or party, or the
// full version history with ?history=true.
func (h *AggregateHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	if !domain.ValidScopeType(scope) {
		writeError(w, http.StatusBadRequest, "scope must be document, filing or party")
		return
	}
	scopeID := chi.URLParam(r, "id")

	if history, _ := strconv.ParseBool(r.URL.Query().Get("history")); history {
		versions, err := h.aggregates.History(r.Context(), domain.ScopeType(scope), scopeID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get aggregate history")
			return
		}
		if len(versions) == 0 {
			writeError(w, http.StatusNotFound, "aggregate not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"versions": versions, "count": len(versions)})
		return
	}

	agg, err := h.aggregates.Latest(r.Context(), domain.ScopeType(scope), scopeID)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "aggregate not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get aggregate")
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

func (h *AggregateHandler) Profile(w http.ResponseWriter, r *http.Request) {
	partyID := chi.URLParam(r, "id")

	profile, err := h.profiles.Latest(r.Context(), partyID)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "party has no profile")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
