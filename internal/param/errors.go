package param

import (
	"errors"
	"fmt"
)

// Structural errors. None of them is transient; each one points at a tree
// that was built wrong or a Packed container that does not match it.
var (
	// ErrShapeMismatch indicates a value whose shape disagrees with the declared shape.
	ErrShapeMismatch = errors.New("param: shape mismatch")

	// ErrDuplicateName indicates a param, child slot or module name already in use.
	ErrDuplicateName = errors.New("param: duplicate name")

	// ErrCycleDetected indicates that attaching a child would make the tree cyclic.
	ErrCycleDetected = errors.New("param: cycle detected")

	// ErrSizeMismatch indicates a flat vector whose length disagrees with the dynamic layout.
	ErrSizeMismatch = errors.New("param: size mismatch")

	// ErrConflictingKeys indicates two Packed containers covering the same module.
	ErrConflictingKeys = errors.New("param: conflicting keys")

	// ErrMissingDynamicParam indicates a Packed container without the requested entry.
	ErrMissingDynamicParam = errors.New("param: missing dynamic param")

	// ErrUnresolvedDynamicParam indicates a dynamic param with no value at call time.
	ErrUnresolvedDynamicParam = errors.New("param: unresolved dynamic param")

	// ErrUnknownParam indicates a name the module never registered.
	ErrUnknownParam = errors.New("param: unknown param")
)

// Error wraps a structural error with the module and name it concerns.
type Error struct {
	Op     string
	Module string
	Name   string
	Err    error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Module, e.Err)
	}
	return fmt.Sprintf("%s %s.%s: %v", e.Op, e.Module, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
