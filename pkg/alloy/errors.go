package alloy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind enumerates the runtime error kinds of spec.md §7.
type ErrorKind string

const (
	ErrCircularDependency      ErrorKind = "circular-dependency"
	ErrMissingToken            ErrorKind = "missing-token"
	ErrInvalidDependency       ErrorKind = "invalid-dependency"
	ErrDeferredImportFailed    ErrorKind = "deferred-import-failed"
	ErrNotAClass               ErrorKind = "not-a-class"
	ErrNoService               ErrorKind = "no-service"
	ErrPlaceholderInstantiated ErrorKind = "placeholder-instantiated"
)

// ResolutionError carries a runtime failure's kind, target, resolution
// stack, message and optional underlying cause. The failing dependency is
// not stored as a field; where it matters, the message describes it.
type ResolutionError struct {
	Kind    ErrorKind
	Target  *ServiceKey
	Stack   []*ServiceKey
	Message string
	Cause   error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("alloy: %s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// Is reports whether target is a *ResolutionError of the same Kind, so
// errors.Is(err, &ResolutionError{Kind: ErrCircularDependency}) matches by
// kind.
func (e *ResolutionError) Is(target error) bool {
	var other *ResolutionError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func pathString(stack []*ServiceKey, target *ServiceKey) string {
	names := make([]string, 0, len(stack)+1)
	for _, k := range stack {
		names = append(names, k.Name)
	}
	names = append(names, target.Name)
	return strings.Join(names, " -> ")
}

func newCircularDependencyError(stack []*ServiceKey, target *ServiceKey) *ResolutionError {
	return &ResolutionError{
		Kind:    ErrCircularDependency,
		Target:  target,
		Stack:   stack,
		Message: pathString(stack, target),
	}
}

func newMissingTokenError(stack []*ServiceKey, target *ServiceKey, token *Token) *ResolutionError {
	return &ResolutionError{
		Kind:    ErrMissingToken,
		Target:  target,
		Stack:   stack,
		Message: fmt.Sprintf("no value provided for token %q", token.Description),
	}
}

func newInvalidDependencyError(stack []*ServiceKey, target *ServiceKey, value any) *ResolutionError {
	return &ResolutionError{
		Kind:    ErrInvalidDependency,
		Target:  target,
		Stack:   stack,
		Message: fmt.Sprintf("dependency is neither a token, a service key, nor a deferred descriptor (got %T)", value),
	}
}

func newDeferredImportFailedError(stack []*ServiceKey, target *ServiceKey, cause error) *ResolutionError {
	return &ResolutionError{
		Kind:    ErrDeferredImportFailed,
		Target:  target,
		Stack:   stack,
		Message: "deferred import failed after exhausting retries",
		Cause:   cause,
	}
}

func newNotAClassError(stack []*ServiceKey, target *ServiceKey) *ResolutionError {
	return &ResolutionError{
		Kind:    ErrNotAClass,
		Target:  target,
		Stack:   stack,
		Message: "deferred importer resolved to a value that is not a registered service key",
	}
}

func newNoServiceError(id *Identifier) *ResolutionError {
	return &ResolutionError{
		Kind:    ErrNoService,
		Message: fmt.Sprintf("no service is bound to identifier %q", id.Description),
	}
}

func newPlaceholderInstantiatedError(key *ServiceKey) *ResolutionError {
	return &ResolutionError{
		Kind:    ErrPlaceholderInstantiated,
		Target:  key,
		Message: fmt.Sprintf("%s is a factory-deferred placeholder and cannot be constructed directly", key),
	}
}
