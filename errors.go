package observe

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCallable indicates a value offered as a callback is not one of
	// the supported callback shapes.
	ErrNotCallable = errors.New("observe: callback must be callable")
	// ErrNotAProperty indicates a name does not resolve to a registered
	// property on the instance's type.
	ErrNotAProperty = errors.New("observe: not a callback property")
	// ErrNotFound indicates removal was requested for a callback that is not
	// currently registered.
	ErrNotFound = errors.New("observe: callback not found")
	// ErrNoSetter indicates a write was attempted against a getter-only
	// property.
	ErrNoSetter = errors.New("observe: property has no setter")
	// ErrConflict indicates a mapping-based bulk call also received an
	// explicit standalone callback argument.
	ErrConflict = errors.New("observe: callback map conflicts with explicit callback argument")
	// ErrTypeMismatch indicates CopyCallbacks was invoked across instances of
	// incompatible dynamic types.
	ErrTypeMismatch = errors.New("observe: instance types do not match")
	// ErrNotRegistered indicates no property manifest exists for the type.
	ErrNotRegistered = errors.New("observe: type has no registered manifest")
	// ErrDuplicateProperty indicates manifest registration received two
	// properties with the same name.
	ErrDuplicateProperty = errors.New("observe: property names must be unique")
)

// DispatchError reports a callback failure during notification. The dispatch
// stops at the failing callback; callbacks not yet run are skipped.
type DispatchError struct {
	Property string
	Err      error
}

func (e *DispatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("observe: dispatch for property %q aborted: %v", e.Property, e.Err)
}

func (e *DispatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
