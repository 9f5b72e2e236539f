package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromemIndex_AddSearch(t *testing.T) {
	idx, err := NewChromemIndex(3)
	require.NoError(t, err)
	defer idx.Close()
	ctx := context.Background()

	err = idx.Add(ctx, []string{"a", "b", "c"}, [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Size())

	// k larger than the collection is clamped.
	results, err := idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.Equal(t, "c", results[2].ID)
}

func TestChromemIndex_EmptyAndErrors(t *testing.T) {
	idx, err := NewChromemIndex(2)
	require.NoError(t, err)
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	err = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0, 0}})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	err = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}})
	assert.True(t, errors.Is(err, ErrArityMismatch))

	_, err = idx.Search(ctx, []float32{1}, 1)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestChromemIndex_Remove(t *testing.T) {
	idx, err := NewChromemIndex(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, idx.Remove(ctx, []string{"x"}))
	require.NoError(t, idx.Remove(ctx, nil))
	assert.Equal(t, 1, idx.Size())

	results, err := idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "y", results[0].ID)
}
