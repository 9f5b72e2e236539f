package vector

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes attached with oops so callers can classify failures.
const (
	CodeDimensionMismatch = "vector.dimension_mismatch"
	CodeArityMismatch     = "vector.arity_mismatch"
)

var (
	// ErrDimensionMismatch reports a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrArityMismatch reports an Add call with differing id and vector counts.
	ErrArityMismatch = errors.New("ids and vectors length mismatch")
)

// NewDimensionError wraps ErrDimensionMismatch with the offending sizes.
func NewDimensionError(got, expected int) error {
	return oops.
		Code(CodeDimensionMismatch).
		With("got", got, "expected", expected).
		Wrapf(ErrDimensionMismatch, "vector has %d dimensions, expected %d", got, expected)
}

func newArityError(ids, vectors int) error {
	return oops.
		Code(CodeArityMismatch).
		With("ids", ids, "vectors", vectors).
		Wrapf(ErrArityMismatch, "%d ids for %d vectors", ids, vectors)
}

// validateBatch checks an Add batch before anything is stored.
func validateBatch(ids []string, vectors [][]float32, dimensions int) error {
	if len(ids) != len(vectors) {
		return newArityError(len(ids), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != dimensions {
			return NewDimensionError(len(v), dimensions)
		}
	}
	return nil
}
