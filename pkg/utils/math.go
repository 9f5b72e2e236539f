package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}

// CloneVector returns a copy of v that shares no memory with it.
func CloneVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// CloneVectors deep-copies a batch of vectors.
func CloneVectors(vs [][]float32) [][]float32 {
	out := make([][]float32, len(vs))
	for i, v := range vs {
		out[i] = CloneVector(v)
	}
	return out
}

// Lerp returns decay*old + (1-decay)*cur element-wise, written into a new slice.
// Used for exponential moving averages of centroids.
func Lerp(old, cur []float32, decay float32) []float32 {
	out := make([]float32, len(old))
	for i := range old {
		out[i] = decay*old[i] + (1-decay)*cur[i]
	}
	return out
}
