// Package errors defines forge's stable error vocabulary: every failure the
// build pipeline can produce carries a short machine code plus a human
// message, and optionally a documentation URL and follow-up hints.
package errors

import "fmt"

// Code identifies a stable, machine-checkable failure mode.
type Code string

const (
	// MissingOptions indicates no input/output object, or a write call with
	// neither file nor dir set.
	MissingOptions Code = "MISSING_OPTIONS"
	// UnknownOption indicates an unrecognized top-level configuration key.
	// Always carried as a warning, never as a fatal error.
	UnknownOption Code = "UNKNOWN_OPTION"
	// InvalidOption indicates a forbidden combination of options.
	InvalidOption Code = "INVALID_OPTION"
	// DeprecatedFormat indicates use of the retired "es6" format tag.
	DeprecatedFormat Code = "DEPRECATED_FORMAT"
	// PluginWarning indicates an extension used a deprecated hook.
	PluginWarning Code = "PLUGIN_WARNING"
	// MissingNameForFormat indicates a UMD/IIFE output with no bundle name.
	MissingNameForFormat Code = "MISSING_GLOBAL_NAME"
	// InternalError indicates an unexpected failure surfaced from a
	// collaborator (Graph, renderer, writer) with no more specific code.
	InternalError Code = "INTERNAL_ERROR"
)

// Hint is a suggested follow-up for the caller, separate from the message.
type Hint struct {
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// Error is forge's error type. It always carries a Code and Message; Cause
// is preserved for errors.Unwrap/errors.Is/errors.As but excluded from the
// string form when nil.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
	Hints   []Hint `json:"hints,omitempty"`
	cause   error
}

// New creates an Error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that preserves cause for Unwrap/Is/As. An extension
// or collaborator error that is rethrown verbatim (identity preserved) must
// NOT be passed through Wrap — the core rethrows those as-is.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithURL attaches a documentation anchor and returns the same error.
func (e *Error) WithURL(url string) *Error {
	e.URL = url
	return e
}

// WithHints attaches suggested follow-ups and returns the same error.
func (e *Error) WithHints(hints ...Hint) *Error {
	e.Hints = append(e.Hints, hints...)
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// MissingOptionsError builds the exact boundary-condition message spec.md §8
// requires for each of the three sites that can trigger it.
func MissingOptionsError(what string) *Error {
	switch what {
	case "input":
		return New(MissingOptions, "You must supply an options object to rollup")
	case "output":
		return New(MissingOptions, "You must supply an output options object")
	case "write":
		return New(MissingOptions, "You must specify output.file")
	default:
		return New(MissingOptions, "You must supply an options object")
	}
}

// InvalidOptionError builds an InvalidOption error with a documentation URL.
func InvalidOptionError(message string) *Error {
	return New(InvalidOption, message).WithURL("https://rollupjs.org/guide/en/#outputformat")
}
