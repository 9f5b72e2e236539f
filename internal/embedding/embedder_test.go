package embedding

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/hybridvdb/internal/vector"
)

func TestCheckEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		vec     []float32
		dims    int
		wantErr bool
	}{
		{"ok", []float32{0.6, 0.8}, 2, false},
		{"too short", []float32{1}, 2, true},
		{"too long", []float32{1, 0, 0}, 2, true},
		{"nan", []float32{float32(math.NaN()), 1}, 2, true},
		{"inf", []float32{1, float32(math.Inf(-1))}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkEmbedding(tt.vec, tt.dims)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.ErrorIs(t, checkEmbedding([]float32{1}, 4), vector.ErrDimensionMismatch)
}

func TestNew_ONNXRejectsMissingModel(t *testing.T) {
	_, err := New(Options{
		Provider:   string(ProviderONNX),
		ModelPath:  filepath.Join(t.TempDir(), "missing.onnx"),
		Dimensions: 8,
	})
	require.Error(t, err)
}
