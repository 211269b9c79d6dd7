package handlers

import (
	"net/http"
	"time"

	"github.com/lexgraph/lexgraph/internal/graph"
	"github.com/lexgraph/lexgraph/internal/service"
)

type StatsHandler struct {
	idx   *graph.Index
	stats *service.PipelineStats
}

func NewStatsHandler(idx *graph.Index, stats *service.PipelineStats) *StatsHandler {
	return &StatsHandler{idx: idx, stats: stats}
}

type statsResponse struct {
	Graph         graph.Stats `json:"graph"`
	Queries       int64       `json:"queries"`
	Fallbacks     int64       `json:"fallbacks"`
	Blocked       int64       `json:"blocked"`
	AvgDurationMS float64     `json:"avg_duration_ms"`
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Graph:     h.idx.Stats(),
		Queries:   h.stats.Queries.Load(),
		Fallbacks: h.stats.Fallbacks.Load(),
		Blocked:   h.stats.Blocked.Load(),
	}
	if resp.Queries > 0 {
		total := time.Duration(h.stats.TotalDuration.Load())
		resp.AvgDurationMS = float64(total.Milliseconds()) / float64(resp.Queries)
	}
	writeJSON(w, http.StatusOK, resp)
}
