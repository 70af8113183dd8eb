package oppex

import (
	"errors"
	"fmt"
)

// Nothing in this engine is fatal to the host process: every failure mode
// resolves to a returned error value or an empty result. Fetch and
// navigation failures carry their own type in the fetch package; the types
// here cover the selector side, where "the selector is broken" must be told
// apart from "the selector matched nothing" -- the latter is not an error
// at all.

// SelectorSyntaxError is a malformed CSS selector. Distinct from a selector
// that compiles but matches nothing.
type SelectorSyntaxError struct {
	Selector string
	Err      error
}

func (e *SelectorSyntaxError) Error() string {
	return fmt.Sprintf("invalid CSS selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorSyntaxError) Unwrap() error { return e.Err }

// IsSelectorSyntax reports whether err is a selector syntax failure.
func IsSelectorSyntax(err error) bool {
	var se *SelectorSyntaxError
	return errors.As(err, &se)
}
