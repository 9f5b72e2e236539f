// Package semcache clusters recently returned vectors online and tracks which
// clusters are active through a decaying momentum.
package semcache

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/vector"
	"github.com/hyperjump/hybridvdb/pkg/utils"
)

const (
	// DefaultDistanceThreshold is the cosine distance under which a vector joins a cluster.
	DefaultDistanceThreshold = 0.3
	// DefaultDecayFactor is the per-minute momentum multiplier.
	DefaultDecayFactor = 0.95

	minMomentum   = 0.1
	centroidDecay = 0.9
)

// Cluster is a snapshot of one semantic cluster.
type Cluster struct {
	Centroid     []float32 `json:"-"`
	Momentum     float64   `json:"momentum"`
	VectorIDs    []string  `json:"vector_ids"`
	LastActivity time.Time `json:"last_activity"`
}

func (c *Cluster) clone() Cluster {
	out := *c
	out.Centroid = utils.CloneVector(c.Centroid)
	out.VectorIDs = append([]string(nil), c.VectorIDs...)
	return out
}

// Cache owns the cluster list.
type Cache struct {
	dimensions  int
	threshold   float64
	decayFactor float64
	clusters    []*Cluster
	now         func() time.Time
	logger      *zap.Logger
	mu          sync.Mutex
}

// Option configures optional Cache settings.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithDistanceThreshold overrides DefaultDistanceThreshold.
func WithDistanceThreshold(d float64) Option {
	return func(c *Cache) {
		c.threshold = d
	}
}

// WithDecayFactor overrides DefaultDecayFactor for Decay calls that pass 0.
func WithDecayFactor(f float64) Option {
	return func(c *Cache) {
		c.decayFactor = f
	}
}

// New creates an empty cache for vectors of the given dimension.
func New(dimensions int, opts ...Option) (*Cache, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	c := &Cache{
		dimensions:  dimensions,
		threshold:   DefaultDistanceThreshold,
		decayFactor: DefaultDecayFactor,
		now:         time.Now,
		logger:      zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// nearest returns the closest cluster and its distance. Caller holds the lock.
func (c *Cache) nearest(v []float32) (*Cluster, float64) {
	var best *Cluster
	bestDist := math.Inf(1)
	for _, cl := range c.clusters {
		if d := vector.CosineDistance(v, cl.Centroid); d < bestDist {
			best, bestDist = cl, d
		}
	}
	return best, bestDist
}

// UpdateWithVector folds v into the nearest cluster when it is within the
// distance threshold, otherwise starts a new cluster with momentum 1.
func (c *Cache) UpdateWithVector(v []float32, id string) error {
	if len(v) != c.dimensions {
		return vector.NewDimensionError(len(v), c.dimensions)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if best, dist := c.nearest(v); best != nil && dist < c.threshold {
		best.Momentum++
		best.Centroid = utils.Lerp(best.Centroid, v, centroidDecay)
		best.VectorIDs = append(best.VectorIDs, id)
		best.LastActivity = c.now()
		return nil
	}
	c.clusters = append(c.clusters, &Cluster{
		Centroid:     utils.CloneVector(v),
		Momentum:     1.0,
		VectorIDs:    []string{id},
		LastActivity: c.now(),
	})
	return nil
}

// Decay multiplies each cluster's momentum by factor raised to the minutes
// since its last activity and drops clusters at or below 0.1. A factor <= 0
// uses the configured default. It returns the number of clusters dropped.
func (c *Cache) Decay(factor float64) int {
	if factor <= 0 {
		factor = c.decayFactor
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	alive := c.clusters[:0]
	for _, cl := range c.clusters {
		minutes := math.Max(now.Sub(cl.LastActivity).Minutes(), 0)
		cl.Momentum *= math.Pow(factor, minutes)
		if cl.Momentum > minMomentum {
			alive = append(alive, cl)
		}
	}
	dropped := len(c.clusters) - len(alive)
	for i := len(alive); i < len(c.clusters); i++ {
		c.clusters[i] = nil
	}
	c.clusters = alive
	if dropped > 0 {
		c.logger.Debug("clusters dropped by decay", zap.Int("count", dropped))
	}
	return dropped
}

// FindHotCluster returns the cluster nearest to v regardless of distance.
func (c *Cache) FindHotCluster(v []float32) (Cluster, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	best, _ := c.nearest(v)
	if best == nil {
		return Cluster{}, false
	}
	return best.clone(), true
}

// Clusters returns snapshots of every cluster in creation order.
func (c *Cache) Clusters() []Cluster {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Cluster, len(c.clusters))
	for i, cl := range c.clusters {
		out[i] = cl.clone()
	}
	return out
}

// Len returns the number of live clusters.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clusters)
}
