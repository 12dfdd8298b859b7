// Package apperr defines the error kinds surfaced by the content engine.
// Handlers map these onto HTTP statuses; services return them wrapped with
// fmt.Errorf("...: %w", err) so errors.Is / errors.As work end to end.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is the generic sentinel for missing resources.
var ErrNotFound = errors.New("not found")

// InvalidTransitionError is returned when an operation is not legal for the
// target's current lifecycle status (e.g. editing a superseded element).
type InvalidTransitionError struct {
	Entity string
	Op     string
	Status string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s %s with status %q", e.Op, e.Entity, e.Status)
}

// BlockedByDraftUpdateError is returned by deliverable refresh when one or
// more bound elements have draft versions pending approval. Recoverable via
// force=true or by approving the drafts first.
type BlockedByDraftUpdateError struct {
	ElementNames []string
}

func (e *BlockedByDraftUpdateError) Error() string {
	return fmt.Sprintf("refresh blocked by pending draft updates: %s", strings.Join(e.ElementNames, ", "))
}

// BindingRejectedError is returned when a section binding references an
// element family that has no approved version anywhere in its chain.
type BindingRejectedError struct {
	ElementName string
}

func (e *BindingRejectedError) Error() string {
	return fmt.Sprintf("binding rejected: element %q has no approved version", e.ElementName)
}

// ValidationFailedError is returned when strict validation is enabled and one
// or more rules failed. With strict mode off the same failures are only
// recorded in the deliverable's validation log.
type ValidationFailedError struct {
	Failures []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Failures, "; "))
}

// StructureMismatchError is returned when a deliverable update switches story
// model without supplying a template bound to that story model.
type StructureMismatchError struct {
	Reason string
}

func (e *StructureMismatchError) Error() string {
	return "structure mismatch: " + e.Reason
}
