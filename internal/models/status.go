package models

import (
	"time"

	"github.com/hyperjump/hybridvdb/internal/anchor"
	"github.com/hyperjump/hybridvdb/internal/metrics"
	"github.com/hyperjump/hybridvdb/internal/semcache"
	"github.com/hyperjump/hybridvdb/internal/tiered"
)

// Status is the body of GET /api/v1/status.
type Status struct {
	Partitions          tiered.Stats     `json:"partitions"`
	Anchors             int              `json:"anchors"`
	Clusters            int              `json:"clusters"`
	Documents           int64            `json:"documents"`
	DiskUsageBytes      int64            `json:"disk_usage_bytes"`
	RemoteProvider      string           `json:"remote_provider"`
	EmbeddingDimensions int              `json:"embedding_dimensions"`
	Metrics             metrics.Snapshot `json:"metrics"`
}

// AnchorSummary is the listing form of an anchor.
type AnchorSummary struct {
	ID              int64       `json:"id"`
	Type            anchor.Type `json:"type"`
	Strength        float64     `json:"strength"`
	HitCount        int         `json:"hit_count"`
	LastHitTime     time.Time   `json:"last_hit_time"`
	HistoryLength   int         `json:"history_length"`
	PredictionCount int         `json:"prediction_count"`
}

// NewAnchorSummary summarizes a.
func NewAnchorSummary(a anchor.Anchor) AnchorSummary {
	return AnchorSummary{
		ID:              a.ID,
		Type:            a.Type,
		Strength:        a.Strength,
		HitCount:        a.HitCount,
		LastHitTime:     a.LastHitTime,
		HistoryLength:   len(a.QueryHistory),
		PredictionCount: len(a.Predictions),
	}
}

// ClusterSummary is the listing form of a semantic cluster.
type ClusterSummary struct {
	Momentum     float64   `json:"momentum"`
	Size         int       `json:"size"`
	VectorIDs    []string  `json:"vector_ids"`
	LastActivity time.Time `json:"last_activity"`
}

// NewClusterSummary summarizes c.
func NewClusterSummary(c semcache.Cluster) ClusterSummary {
	return ClusterSummary{
		Momentum:     c.Momentum,
		Size:         len(c.VectorIDs),
		VectorIDs:    c.VectorIDs,
		LastActivity: c.LastActivity,
	}
}

// MaintenanceResult reports one maintenance pass.
type MaintenanceResult struct {
	AnchorsRemoved  int `json:"anchors_removed"`
	ClustersRemoved int `json:"clusters_removed"`
	Anchors         int `json:"anchors"`
	Clusters        int `json:"clusters"`
}
