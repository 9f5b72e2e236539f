package router

import (
	"errors"

	"github.com/samber/oops"
)

// CodeCollaboratorFailure marks a failed embedding call.
const CodeCollaboratorFailure = "router.collaborator.failure"

// ErrCollaboratorFailure reports that an injected collaborator failed and
// the query could not proceed.
var ErrCollaboratorFailure = errors.New("collaborator failure")

// ErrMissingID is returned when a permanent document has an empty id.
var ErrMissingID = errors.New("document has no id")

func newCollaboratorError(collaborator string, err error) error {
	return oops.
		Code(CodeCollaboratorFailure).
		With("collaborator", collaborator).
		Wrapf(ErrCollaboratorFailure, "%s: %v", collaborator, err)
}
