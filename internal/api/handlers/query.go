package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/service"
)

type QueryHandler struct {
	pipeline *service.Pipeline
}

func NewQueryHandler(pipeline *service.Pipeline) *QueryHandler {
	return &QueryHandler{pipeline: pipeline}
}

type queryRequest struct {
	Query    string `json:"query"`
	Audience string `json:"audience,omitempty"`
	Language string `json:"language,omitempty"`
}

// Translation is not wired in; the field is validated so callers fail fast
// instead of silently getting English back.
var supportedLanguages = map[string]bool{"en": true}

type queryResponse struct {
	Answer            string               `json:"answer"`
	ConfidenceMessage string               `json:"confidence_message"`
	Blocked           bool                 `json:"blocked"`
	Result            *service.QueryResult `json:"result"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	audience := domain.Audience(req.Audience)
	if req.Audience == "" {
		audience = domain.AudienceCitizen
	}
	if req.Language != "" && !supportedLanguages[req.Language] {
		writeError(w, http.StatusBadRequest, "unsupported language")
		return
	}

	result, err := h.pipeline.Process(r.Context(), req.Query, audience)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyQuery),
			errors.Is(err, service.ErrQueryTooLong),
			errors.Is(err, service.ErrInvalidAudience):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "query processing failed")
		}
		return
	}

	resp := queryResponse{
		Answer:            result.Answer,
		ConfidenceMessage: result.Confidence.DisplayMessage(),
		Result:            result,
	}

	// Very low confidence answers are withheld entirely.
	if result.Confidence.ShouldBlockDisplay() {
		resp.Blocked = true
		resp.Answer = ""
	}

	writeJSON(w, http.StatusOK, resp)
}
