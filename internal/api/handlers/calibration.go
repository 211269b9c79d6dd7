package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lexgraph/lexgraph/internal/service"
)

type CalibrationHandler struct {
	scorer *service.ConfidenceScorer
}

func NewCalibrationHandler(scorer *service.ConfidenceScorer) *CalibrationHandler {
	return &CalibrationHandler{scorer: scorer}
}

func (h *CalibrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.scorer.CurrentCalibration())
}

func (h *CalibrationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cal service.Calibration
	if err := json.NewDecoder(r.Body).Decode(&cal); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.scorer.UpdateCalibration(cal); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, h.scorer.CurrentCalibration())
}
