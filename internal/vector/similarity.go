package vector

import "math"

// Epsilon keeps cosine similarity finite for zero vectors.
const Epsilon = 1e-9

// InnerProduct returns the inner product of two vectors (for normalized vectors equals cosine similarity).
func InnerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Cosine returns dot(a,b) / (|a|*|b| + Epsilon). A zero vector scores 0
// against everything.
func Cosine(a, b []float32) float64 {
	return InnerProduct(a, b) / (L2Norm(a)*L2Norm(b) + Epsilon)
}

// CosineDistance is 1 - Cosine(a, b), in [0, 2].
func CosineDistance(a, b []float32) float64 {
	return 1 - Cosine(a, b)
}
