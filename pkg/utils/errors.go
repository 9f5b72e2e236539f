package utils

import (
	"fmt"

	"github.com/samber/oops"
)

// ErrorCode returns the machine-readable code attached to err with oops, or ""
// when the chain carries none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := oopsErr.Code()
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}
