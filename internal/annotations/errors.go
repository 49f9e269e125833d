package annotations

import "fmt"

// SyntaxError reports a malformed annotation, with enough context for a
// human to fix it without re-reading the grammar.
type SyntaxError struct {
	Location   SourceLocation
	Message    string
	Raw        string
	Suggestion string
}

func (e *SyntaxError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s:%d: %s (%s)", e.Location.File, e.Location.Line, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s:%d: %s", e.Location.File, e.Location.Line, e.Message)
}
