// Package errors is the compiler-side typed error hierarchy: the errors
// the scanner, ingestor and codegen surface when a build cannot proceed,
// distinct from pkg/alloy's runtime ResolutionError.
package errors

import (
	"fmt"
	"strings"
)

// CompileError is the interface every compiler-surface error satisfies.
type CompileError interface {
	error
	Code() Code
	Location() SourceLocation
	Suggestions() []string
	Unwrap() error
}

// Code enumerates the compiler-surface error kinds of spec.md §7.
type Code int

const (
	UnknownCode Code = iota
	InvalidManifestCode
	DuplicateRegistrationCode
	UnsupportedLazyIdentifierCode
	ProvidersRequirePreserveModulesCode
)

func (c Code) String() string {
	switch c {
	case InvalidManifestCode:
		return "invalid-manifest"
	case DuplicateRegistrationCode:
		return "duplicate-registration"
	case UnsupportedLazyIdentifierCode:
		return "unsupported-lazy-identifier"
	case ProvidersRequirePreserveModulesCode:
		return "providers-require-preserve-modules"
	default:
		return "unknown"
	}
}

// SourceLocation is where a compile error was raised, when known.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

func (s SourceLocation) String() string {
	if s.File == "" {
		return "unknown location"
	}
	if s.Line == 0 {
		return s.File
	}
	if s.Column == 0 {
		return fmt.Sprintf("%s:%d", s.File, s.Line)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

func (s SourceLocation) IsEmpty() bool { return s.File == "" }

// BaseError is the concrete CompileError implementation every constructor
// in this package returns.
type BaseError struct {
	code    Code
	message string
	loc     SourceLocation
	cause   error
	hints   []string
}

func (e *BaseError) Error() string {
	if e.loc.IsEmpty() {
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
	return fmt.Sprintf("%s: %s: %s", e.loc, e.code, e.message)
}

func (e *BaseError) Code() Code               { return e.code }
func (e *BaseError) Location() SourceLocation { return e.loc }
func (e *BaseError) Suggestions() []string    { return e.hints }
func (e *BaseError) Unwrap() error            { return e.cause }

func (e *BaseError) WithLocation(loc SourceLocation) *BaseError {
	e.loc = loc
	return e
}

func (e *BaseError) WithCause(cause error) *BaseError {
	e.cause = cause
	return e
}

func (e *BaseError) WithSuggestion(s string) *BaseError {
	e.hints = append(e.hints, s)
	return e
}

func newError(code Code, message string) *BaseError {
	return &BaseError{code: code, message: message}
}

// NewInvalidManifest reports a manifest that failed schema validation.
func NewInvalidManifest(packageName string, cause error) *BaseError {
	return newError(InvalidManifestCode, fmt.Sprintf("manifest %q failed validation", packageName)).WithCause(cause)
}

// NewDuplicateRegistration reports a class name discovered both locally
// and in an ingested manifest.
func NewDuplicateRegistration(className, localPath, manifestPath string) *BaseError {
	return newError(DuplicateRegistrationCode,
		fmt.Sprintf("%q is declared both locally (%s) and in an ingested manifest (%s)", className, localPath, manifestPath)).
		WithSuggestion("rename one of the two declarations, or drop the manifest dependency that provides it")
}

// NewUnsupportedLazyIdentifier reports a Lazy(...) argument the scanner
// could not resolve to an importable service.
func NewUnsupportedLazyIdentifier(expression string, loc SourceLocation) *BaseError {
	return newError(UnsupportedLazyIdentifierCode,
		fmt.Sprintf("Lazy(...) argument %q does not resolve to a known import", expression)).
		WithLocation(loc).
		WithSuggestion("Lazy(...) must name a package-qualified identifier reachable through this file's imports")
}

// NewProvidersRequirePreserveModules reports a manifest build attempting
// to ship providers under a build mode that does not yield stable
// per-service import paths.
func NewProvidersRequirePreserveModules(packageName, buildMode string) *BaseError {
	return newError(ProvidersRequirePreserveModulesCode,
		fmt.Sprintf("package %q declares providers but build mode %q does not yield stable public import paths", packageName, buildMode)).
		WithSuggestion("set buildMode to preserve-modules when a manifest declares providers")
}

// MultipleErrors aggregates independent compile errors so a build reports
// everything wrong in one pass instead of stopping at the first failure.
type MultipleErrors struct {
	Errors []CompileError
}

func (e *MultipleErrors) Add(err CompileError) { e.Errors = append(e.Errors, err) }
func (e *MultipleErrors) IsEmpty() bool        { return len(e.Errors) == 0 }

func (e *MultipleErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	lines := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		lines[i] = fmt.Sprintf("  %d. %s", i+1, err.Error())
	}
	return fmt.Sprintf("multiple errors (%d total):\n%s", len(e.Errors), strings.Join(lines, "\n"))
}
