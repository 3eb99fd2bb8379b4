package handlers

import (
	"net/http"
	"strconv"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/service"
)

const (
	defaultFeedLimit = 100
	maxFeedLimit     = 1000
)

type ViolationHandler struct {
	classifications domain.ClassificationStore
	rules           domain.RuleTable
}

func NewViolationHandler(classifications domain.ClassificationStore, rules domain.RuleTable) *ViolationHandler {
	return &ViolationHandler{classifications: classifications, rules: rules}
}

type feedResponse struct {
	Entries []service.FeedEntry `json:"entries"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total"`
}

// Feed lists the violation candidates of the latest classifications,
// optionally filtered by ?tag= and capped by ?limit=.
func (h *ViolationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")
	if tag != "" && !domain.ValidViolationTag(tag) {
		writeError(w, http.StatusBadRequest, "unknown violation tag")
		return
	}

	limit := defaultFeedLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxFeedLimit)
	}

	results, err := h.classifications.ListLatest(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list classifications")
		return
	}

	entries := service.ViolationFeed(results, domain.ViolationTag(tag))
	total := len(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []service.FeedEntry{}
	}
	writeJSON(w, http.StatusOK, feedResponse{Entries: entries, Count: len(entries), Total: total})
}

// Rules returns the rule table classifications are evaluated against.
func (h *ViolationHandler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rules)
}
