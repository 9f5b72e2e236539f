package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/hybridvdb/internal/vector"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(32)
	ctx := context.Background()

	a, err := e.Embed(ctx, "tiered storage")
	require.NoError(t, err)
	b, _ := e.Embed(ctx, "tiered storage")
	c, _ := e.Embed(ctx, "something else entirely")

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
	assert.InDelta(t, 1.0, vector.L2Norm(a), 1e-5)
	assert.Less(t, vector.Cosine(a, c), 0.99)
}

func TestMockEmbedder_DefaultDimensions(t *testing.T) {
	assert.Equal(t, 384, NewMockEmbedder(0).Dimensions())
}

func TestMockEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockEmbedder(4).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	emb, err := New(Options{Provider: "mock", Dimensions: 16, CacheSize: 10})
	require.NoError(t, err)
	defer emb.Close()
	assert.Equal(t, 16, emb.Dimensions())
	_, isCached := emb.(*CachedEmbedder)
	assert.True(t, isCached)

	plain, err := New(Options{Dimensions: 16})
	require.NoError(t, err)
	_, isMock := plain.(*MockEmbedder)
	assert.True(t, isMock)

	_, err = New(Options{Provider: "word2vec", Dimensions: 16})
	assert.Error(t, err)
}
