package handlers

import (
	"net/http"
	"strconv"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/service"
)

// StatementHandler exposes the per-statement results: score history,
// relationships, classifications and lifecycle stage.
type StatementHandler struct {
	stores service.Stores
}

func NewStatementHandler(stores service.Stores) *StatementHandler {
	return &StatementHandler{stores: stores}
}

type scoresResponse struct {
	Latest     *domain.ScoreRecord    `json:"latest"`
	Tier       domain.CredibilityTier `json:"tier"`
	TierReason string                 `json:"tier_reason"`
	History    []domain.ScoreRecord   `json:"history"`
}

func (h *StatementHandler) Scores(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "statement")
	if !ok {
		return
	}

	history, err := h.stores.Scores.History(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get scores")
		return
	}
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "statement has not been scored")
		return
	}

	latest := &history[len(history)-1]
	writeJSON(w, http.StatusOK, scoresResponse{
		Latest:     latest,
		Tier:       latest.Tier(),
		TierReason: domain.TierReason(latest.Dimensions.TruthLie, latest.LowConfidence),
		History:    history,
	})
}

type relationshipsResponse struct {
	Relationships []domain.Relationship `json:"relationships"`
	Count         int                   `json:"count"`
}

// Relationships lists the relationships touching a statement. By default the
// reviewer overrides are applied; ?computed=true returns the stored versions.
func (h *StatementHandler) Relationships(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "statement")
	if !ok {
		return
	}
	computed, _ := strconv.ParseBool(r.URL.Query().Get("computed"))
	kind := r.URL.Query().Get("kind")
	if kind != "" && !domain.ValidRelationshipKind(kind) {
		writeError(w, http.StatusBadRequest, "invalid relationship kind")
		return
	}

	rels, err := h.stores.Relationships.ListByEntity(r.Context(), domain.StatementRef(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list relationships")
		return
	}
	if !computed {
		overrides, err := h.stores.Relationships.ListOverrides(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list overrides")
			return
		}
		rels = domain.ApplyOverrides(rels, overrides)
	}
	filtered := []domain.Relationship{}
	for _, rel := range rels {
		if kind == "" || rel.Kind == domain.RelationshipKind(kind) {
			filtered = append(filtered, rel)
		}
	}
	rels = filtered

	writeJSON(w, http.StatusOK, relationshipsResponse{Relationships: rels, Count: len(rels)})
}

type classificationsResponse struct {
	Latest  *domain.ClassificationResult  `json:"latest"`
	History []domain.ClassificationResult `json:"history"`
}

func (h *StatementHandler) Classifications(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "statement")
	if !ok {
		return
	}

	history, err := h.stores.Classifications.History(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get classifications")
		return
	}
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, "statement has not been classified")
		return
	}

	writeJSON(w, http.StatusOK, classificationsResponse{
		Latest:  &history[len(history)-1],
		History: history,
	})
}

type stageResponse struct {
	Stage       domain.Stage             `json:"stage"`
	Transitions []domain.StageTransition `json:"transitions"`
}

func (h *StatementHandler) Stage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "statement")
	if !ok {
		return
	}

	stage, err := h.stores.Stages.Current(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stage")
		return
	}
	transitions, err := h.stores.Stages.Transitions(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stage transitions")
		return
	}
	if transitions == nil {
		transitions = []domain.StageTransition{}
	}

	writeJSON(w, http.StatusOK, stageResponse{Stage: stage, Transitions: transitions})
}
