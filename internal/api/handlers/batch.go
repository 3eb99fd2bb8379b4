package handlers

import (
	"errors"
	"net/http"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/service"
)

type BatchHandler struct {
	processor *service.Processor
}

func NewBatchHandler(processor *service.Processor) *BatchHandler {
	return &BatchHandler{processor: processor}
}

// Submit queues a batch for processing and answers 202 with its report.
func (h *BatchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var batch domain.Batch
	if err := decodeJSON(w, r, &batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if batch.Empty() {
		writeError(w, http.StatusBadRequest, "batch contains no records")
		return
	}

	id, err := h.processor.Submit(&batch)
	switch {
	case errors.Is(err, service.ErrProcessorHalted):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, service.ErrQueueFull):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "batch queue is full")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to submit batch")
		return
	}

	report, err := h.processor.Report(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get batch report")
		return
	}
	w.Header().Set("Location", "/v1/batches/"+id.String())
	writeJSON(w, http.StatusAccepted, report)
}

func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "batch")
	if !ok {
		return
	}

	report, err := h.processor.Report(id)
	if errors.Is(err, service.ErrBatchNotFound) {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get batch report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
