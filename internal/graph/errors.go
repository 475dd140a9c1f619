package graph

import (
	"errors"
	"fmt"
)

var ErrEmptyName = errors.New("task name is required")
var ErrSelfDependency = errors.New("a task cannot depend on itself")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// CycleError rejects the edge To.blockedBy += From.
type CycleError struct {
	From string
	To   string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("circular dependency: %s already depends on %s", e.From, e.To)
}
