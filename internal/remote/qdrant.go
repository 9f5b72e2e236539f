package remote

import (
	"context"
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantConfig holds the gRPC connection settings for a Qdrant collection.
type QdrantConfig struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	Collection     string
	MaxMessageSize int
}

// QdrantSearcher queries a Qdrant collection over the native gRPC API.
// Points are expected to carry their document text under the "text" or
// "content" payload key; a string "id" payload overrides the point id.
type QdrantSearcher struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// NewQdrantSearcher connects to Qdrant. The client dials lazily, so an
// unreachable server surfaces on the first Search.
func NewQdrantSearcher(cfg QdrantConfig, logger *zap.Logger) (*QdrantSearcher, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 50 * 1024 * 1024
	}
	if !cfg.UseTLS {
		logger.Warn("qdrant gRPC using plaintext (TLS disabled)", zap.String("host", cfg.Host))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
				grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &QdrantSearcher{client: client, collection: cfg.Collection, logger: logger}, nil
}

// Search runs a nearest-neighbour query and returns hits with their vectors.
func (q *QdrantSearcher) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", q.collection, err)
	}
	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		hits = append(hits, hitFromPoint(p))
	}
	q.logger.Debug("qdrant query", zap.String("collection", q.collection), zap.Int("hits", len(hits)))
	return hits, nil
}

// HealthCheck reports whether the server answers.
func (q *QdrantSearcher) HealthCheck(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check: %w", err)
	}
	return nil
}

// Name identifies the backend.
func (q *QdrantSearcher) Name() string { return string(ProviderQdrant) }

// Close closes the gRPC connection.
func (q *QdrantSearcher) Close() error {
	return q.client.Close()
}

func hitFromPoint(p *qdrant.ScoredPoint) Hit {
	h := Hit{
		ID:     pointID(p.GetId()),
		Score:  float64(p.GetScore()),
		Vector: denseVector(p.GetVectors()),
	}
	for key, v := range p.GetPayload() {
		s, ok := v.GetKind().(*qdrant.Value_StringValue)
		if !ok {
			continue
		}
		switch key {
		case "id":
			h.ID = s.StringValue
		case "text":
			h.Content = s.StringValue
		case "content":
			if h.Content == "" {
				h.Content = s.StringValue
			}
		}
	}
	return h
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func denseVector(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	if vec := vectors.GetVector(); vec != nil {
		if dense := vec.GetDense(); dense != nil {
			return dense.GetData()
		}
	}
	return nil
}

// IsTransientError reports whether a Qdrant error is worth retrying later
// (unavailable, deadline, aborted, exhausted).
func IsTransientError(err error) bool {
	st, ok := status.FromError(err)
	if !ok || err == nil {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}
