package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/models"
)

// DecayAnchors runs one anchor decay pass. It has the scheduler callback shape.
func (r *Router) DecayAnchors(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.tracker.Decay()
	r.observeState()
	r.logger.Debug("anchor decay", zap.Int("removed", removed), zap.Int("anchors", r.tracker.Len()))
	return nil
}

// DecayClusters runs one cluster decay pass with the configured factor.
func (r *Router) DecayClusters(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.cache.Decay(0)
	r.observeState()
	r.logger.Debug("cluster decay", zap.Int("removed", removed), zap.Int("clusters", r.cache.Len()))
	return nil
}

// Maintain decays anchors and clusters and compacts the store in one pass.
func (r *Router) Maintain(ctx context.Context) (models.MaintenanceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := models.MaintenanceResult{
		AnchorsRemoved:  r.tracker.Decay(),
		ClustersRemoved: r.cache.Decay(0),
	}
	if err := r.store.Compact(ctx); err != nil {
		return res, fmt.Errorf("compact store: %w", err)
	}
	res.Anchors = r.tracker.Len()
	res.Clusters = r.cache.Len()
	r.observeState()
	r.logger.Info("maintenance pass",
		zap.Int("anchors_removed", res.AnchorsRemoved),
		zap.Int("clusters_removed", res.ClustersRemoved))
	return res, nil
}

// Status reports collection sizes and the metrics snapshot.
func (r *Router) Status(ctx context.Context) (models.Status, error) {
	st := models.Status{
		Partitions:          r.store.Stats(),
		Anchors:             r.tracker.Len(),
		Clusters:            r.cache.Len(),
		RemoteProvider:      r.remote.Name(),
		EmbeddingDimensions: r.embedder.Dimensions(),
		Metrics:             r.metrics.Snapshot(),
	}
	if r.documents != nil {
		n, err := r.documents.CountDocuments(ctx)
		if err != nil {
			return st, fmt.Errorf("count documents: %w", err)
		}
		st.Documents = n
	}
	return st, nil
}

// Anchors lists anchor summaries in id order.
func (r *Router) Anchors() []models.AnchorSummary {
	anchors := r.tracker.Anchors()
	out := make([]models.AnchorSummary, len(anchors))
	for i, a := range anchors {
		out[i] = models.NewAnchorSummary(a)
	}
	return out
}

// Clusters lists cluster summaries in creation order.
func (r *Router) Clusters() []models.ClusterSummary {
	clusters := r.cache.Clusters()
	out := make([]models.ClusterSummary, len(clusters))
	for i, c := range clusters {
		out[i] = models.NewClusterSummary(c)
	}
	return out
}
