package utils

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	base := errors.New("boom")
	err := oops.Code("vector.dimension_mismatch").Wrapf(base, "add")

	assert.Equal(t, "vector.dimension_mismatch", ErrorCode(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "", ErrorCode(base))
	assert.Equal(t, "", ErrorCode(nil))
}
