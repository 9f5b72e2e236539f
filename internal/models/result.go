package models

import (
	"github.com/hyperjump/hybridvdb/internal/anchor"
	"github.com/hyperjump/hybridvdb/internal/metrics"
)

// SearchResponse is the result of one routed query. IDs and Scores are
// parallel and ordered by descending score.
type SearchResponse struct {
	RequestID     string           `json:"request_id"`
	Query         string           `json:"query"`
	IDs           []string         `json:"ids"`
	Scores        []float64        `json:"scores"`
	Source        string           `json:"source"`
	LatencyMs     float64          `json:"latency_ms"`
	AnchorID      int64            `json:"anchor_id"`
	AnchorType    anchor.Type      `json:"anchor_type"`
	PredictionHit bool             `json:"prediction_hit"`
	Metrics       metrics.Snapshot `json:"metrics"`
	// Contents maps result ids to stored text, for ids that have any.
	Contents map[string]string `json:"contents,omitempty"`
}
