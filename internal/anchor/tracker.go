package anchor

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/vector"
	"github.com/hyperjump/hybridvdb/pkg/utils"
)

// ErrNotFound is returned for an id that was never issued or has been removed.
var ErrNotFound = errors.New("anchor not found")

// centroidDecay weights the old centroid in the moving average.
const centroidDecay = 0.9

// Tracker owns the anchor collection. Anchors are kept in ascending id order,
// which is also creation order, so scans are deterministic.
type Tracker struct {
	cfg        Config
	dimensions int
	anchors    []*Anchor
	byID       map[int64]*Anchor
	nextID     int64
	now        func() time.Time
	rng        *rand.Rand
	logger     *zap.Logger
	mu         sync.Mutex
}

// Option configures optional Tracker dependencies.
type Option func(*Tracker)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates an empty tracker for vectors of the given dimension.
func NewTracker(dimensions int, cfg Config, opts ...Option) (*Tracker, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	seed := uint64(cfg.RandomSeed)
	t := &Tracker{
		cfg:        cfg,
		dimensions: dimensions,
		byID:       make(map[int64]*Anchor),
		now:        time.Now,
		rng:        rand.New(rand.NewPCG(seed, seed)),
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// ProcessQuery attaches the query to the nearest anchor within the distance
// threshold, or starts a new anchor centred on it. Exactly one anchor is
// touched; its snapshot is returned.
func (t *Tracker) ProcessQuery(query []float32, text string) (Anchor, error) {
	if len(query) != t.dimensions {
		return Anchor{}, vector.NewDimensionError(len(query), t.dimensions)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var nearest *Anchor
	minDist := math.Inf(1)
	for _, a := range t.anchors {
		if d := vector.CosineDistance(query, a.Centroid); d < minDist {
			minDist = d
			nearest = a
		}
	}

	if nearest != nil && minDist < t.cfg.DistanceThreshold {
		nearest.setStrength(nearest.Strength + t.cfg.HitBonus)
		nearest.HitCount++
		nearest.Centroid = utils.Lerp(nearest.Centroid, query, centroidDecay)
		nearest.QueryHistory = append(nearest.QueryHistory, text)
		nearest.LastHitTime = t.now()
		t.logger.Debug("anchor hit",
			zap.Int64("anchor_id", nearest.ID),
			zap.Float64("distance", minDist),
			zap.Float64("strength", nearest.Strength),
			zap.String("type", string(nearest.Type)))
		return nearest.clone(), nil
	}

	a := &Anchor{
		ID:           t.nextID,
		Centroid:     utils.CloneVector(query),
		QueryHistory: []string{text},
		LastHitTime:  t.now(),
	}
	a.setStrength(t.cfg.InitialStrength)
	t.nextID++
	t.anchors = append(t.anchors, a)
	t.byID[a.ID] = a
	t.logger.Debug("anchor created", zap.Int64("anchor_id", a.ID))
	return a.clone(), nil
}

// GeneratePredictions replaces the anchor's predictions with k vectors drawn
// around its centroid with Gaussian noise, and returns copies of them.
func (t *Tracker) GeneratePredictions(id int64, k int) ([][]float32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if k < 0 {
		k = 0
	}
	preds := make([][]float32, k)
	for i := range preds {
		p := make([]float32, len(a.Centroid))
		for j, c := range a.Centroid {
			p[j] = c + float32(t.rng.NormFloat64()*t.cfg.PredictionStdDev)
		}
		preds[i] = p
	}
	a.Predictions = preds
	return utils.CloneVectors(preds), nil
}

// CheckPredictionHit looks for a stored prediction similar enough to query.
// Anchors are scanned in creation order and predictions in generation order;
// the first match is rewarded and returned. Predictions are kept after a hit.
func (t *Tracker) CheckPredictionHit(query []float32) (Anchor, bool, error) {
	if len(query) != t.dimensions {
		return Anchor{}, false, vector.NewDimensionError(len(query), t.dimensions)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, a := range t.anchors {
		for _, p := range a.Predictions {
			if vector.Cosine(query, p) < t.cfg.PredictionThreshold {
				continue
			}
			a.setStrength(a.Strength + t.cfg.PredictionBonus)
			a.HitCount++
			a.LastHitTime = t.now()
			t.logger.Debug("prediction hit",
				zap.Int64("anchor_id", a.ID),
				zap.Float64("strength", a.Strength))
			return a.clone(), true, nil
		}
	}
	return Anchor{}, false, nil
}

// Decay weakens every non-PERMANENT anchor by its per-hour base raised to the
// hours since its last hit, then drops non-PERMANENT anchors below the removal
// floor. It returns the number of anchors removed.
func (t *Tracker) Decay() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	kept := t.anchors[:0]
	removed := 0
	for _, a := range t.anchors {
		if a.Type != TypePermanent {
			hours := math.Max(now.Sub(a.LastHitTime).Hours(), 0)
			a.setStrength(a.Strength * math.Pow(t.cfg.decayBase(a.Type), hours))
		}
		if a.Type != TypePermanent && a.Strength < t.cfg.RemovalFloor {
			delete(t.byID, a.ID)
			removed++
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(t.anchors); i++ {
		t.anchors[i] = nil
	}
	t.anchors = kept
	if removed > 0 {
		t.logger.Debug("anchors removed by decay", zap.Int("count", removed), zap.Int("remaining", len(kept)))
	}
	return removed
}

// Get returns a snapshot of one anchor.
func (t *Tracker) Get(id int64) (Anchor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.byID[id]
	if !ok {
		return Anchor{}, false
	}
	return a.clone(), true
}

// Anchors returns snapshots of every anchor in id order.
func (t *Tracker) Anchors() []Anchor {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Anchor, len(t.anchors))
	for i, a := range t.anchors {
		out[i] = a.clone()
	}
	return out
}

// Len returns the number of live anchors.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.anchors)
}
