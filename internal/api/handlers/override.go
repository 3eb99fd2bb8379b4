package handlers

import (
	"errors"
	"net/http"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/service"
)

type OverrideHandler struct {
	reviewSvc *service.ReviewService
}

func NewOverrideHandler(reviewSvc *service.ReviewService) *OverrideHandler {
	return &OverrideHandler{reviewSvc: reviewSvc}
}

type createOverrideRequest struct {
	Strength   *int   `json:"strength,omitempty"`
	Suppressed bool   `json:"suppressed"`
	Reviewer   string `json:"reviewer"`
	Reason     string `json:"reason"`
}

func (h *OverrideHandler) Create(w http.ResponseWriter, r *http.Request) {
	relID, ok := idParam(w, r, "relationship")
	if !ok {
		return
	}

	var req createOverrideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Strength == nil && !req.Suppressed {
		writeError(w, http.StatusBadRequest, "override must set strength or suppressed")
		return
	}

	o := &domain.RelationshipOverride{
		RelationshipID: relID,
		Strength:       req.Strength,
		Suppressed:     req.Suppressed,
		Reviewer:       req.Reviewer,
		Reason:         req.Reason,
	}
	err := h.reviewSvc.Override(r.Context(), o)
	switch {
	case errors.Is(err, service.ErrRelationshipNotFound):
		writeError(w, http.StatusNotFound, "relationship not found")
		return
	case errors.Is(err, domain.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to record override")
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

func (h *OverrideHandler) List(w http.ResponseWriter, r *http.Request) {
	relID, ok := idParam(w, r, "relationship")
	if !ok {
		return
	}

	overrides, err := h.reviewSvc.Overrides(r.Context(), relID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list overrides")
		return
	}
	if overrides == nil {
		overrides = []domain.RelationshipOverride{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"overrides": overrides, "count": len(overrides)})
}
