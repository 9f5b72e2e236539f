package router

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/models"
	"github.com/hyperjump/hybridvdb/internal/vector"
)

// AddPermanent embeds document contents in one batch, keeps the text and adds
// the vectors to the permanent partition. It returns the number added.
func (r *Router) AddPermanent(ctx context.Context, docs []*models.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return 0, fmt.Errorf("%w: document %d", ErrMissingID, i)
		}
		ids[i] = d.ID
		texts[i] = d.Content
	}

	vecs, err := r.embedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.AddPermanent(ctx, ids, vecs); err != nil {
		return 0, err
	}
	if r.documents != nil {
		if err := r.documents.PutDocuments(ctx, docs); err != nil {
			if rbErr := r.store.RemovePermanent(ctx, ids); rbErr != nil {
				r.logger.Warn("failed to roll back permanent vectors", zap.Error(rbErr))
			}
			return 0, fmt.Errorf("store documents: %w", err)
		}
	}
	r.observeState()
	r.logger.Debug("added permanent vectors", zap.Int("count", len(ids)))
	return len(ids), nil
}

// AddPermanentTexts is AddPermanent for plain id/text pairs.
func (r *Router) AddPermanentTexts(ctx context.Context, items []models.TextItem) (int, error) {
	docs := make([]*models.Document, len(items))
	for i, it := range items {
		docs[i] = &models.Document{ID: it.ID, Source: "api", Content: it.Text, ChunkIndex: i}
	}
	return r.AddPermanent(ctx, docs)
}

// ForgetSource removes every permanent vector and document a source produced.
// Without a document store there is no record of sources and nothing is removed.
func (r *Router) ForgetSource(ctx context.Context, source string) (int, error) {
	if r.documents == nil {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.documents.IDsBySource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("list documents for %s: %w", source, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.store.RemovePermanent(ctx, ids); err != nil {
		return 0, err
	}
	if _, err := r.documents.DeleteBySource(ctx, source); err != nil {
		return 0, fmt.Errorf("delete documents for %s: %w", source, err)
	}
	r.observeState()
	return len(ids), nil
}

func (r *Router) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if r.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.embedTimeout)
		defer cancel()
	}
	vecs, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, newCollaboratorError("embedding", err)
	}
	if len(vecs) != len(texts) {
		return nil, newCollaboratorError("embedding", fmt.Errorf("%d vectors for %d texts", len(vecs), len(texts)))
	}
	for _, v := range vecs {
		if len(v) != r.store.Dimensions() {
			return nil, vector.NewDimensionError(len(v), r.store.Dimensions())
		}
	}
	return vecs, nil
}
