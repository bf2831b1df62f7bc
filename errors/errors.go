package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseConfig  Phase = "config"  // configuration loading/validation
	PhaseSeed    Phase = "seed"    // external type import
	PhaseParse   Phase = "parse"   // front-end parsing
	PhaseExtract Phase = "extract" // declaration extraction
	PhaseEmit    Phase = "emit"    // metadata emission
	PhaseRead    Phase = "read"    // metadata reading
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupported  Kind = "unsupported"
	KindInvalidData  Kind = "invalid_data"
	KindNotFound     Kind = "not_found"
	KindUnresolved   Kind = "unresolved_type"
	KindDuplicate    Kind = "duplicate"
	KindInvalidInput Kind = "invalid_input"
	KindIO           Kind = "io"
)

// Error is the structured error type used throughout the pipeline
type Error struct {
	Cause     error
	Phase     Phase
	Kind      Kind
	Type      string // C type name involved, if any
	Namespace string // namespace involved, if any
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Type != "" {
		b.WriteString(": `")
		b.WriteString(e.Type)
		b.WriteByte('`')
		if e.Namespace != "" {
			b.WriteString(" (namespace ")
			b.WriteString(e.Namespace)
			b.WriteByte(')')
		}
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Unsupported creates an unsupported-construct error
func Unsupported(phase Phase, what string) *Error {
	return &Error{Phase: phase, Kind: KindUnsupported, Detail: what}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidData, Detail: detail}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{Phase: phase, Kind: KindNotFound, Detail: fmt.Sprintf("%s %q not found", what, name)}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidInput, Detail: detail}
}

// IO wraps a filesystem error with pipeline context
func IO(phase Phase, detail string, cause error) *Error {
	return &Error{Phase: phase, Kind: KindIO, Detail: detail, Cause: cause}
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: detail, Cause: cause}
}

// UnresolvedRef is a single type reference that resolved to neither a
// local definition, nor the registry, nor a canonical fallback.
type UnresolvedRef struct {
	Type      string // missing type name
	Namespace string // namespace it was expected in
	Context   string // where it was referenced, e.g. "param `buf` of function `read`"
}

// UnresolvedError aborts one partition's emission. It carries every
// unresolved reference found in that partition so missing traverse
// entries or type imports can be fixed in one pass rather than one at a
// time.
type UnresolvedError struct {
	Partition string
	Refs      []UnresolvedRef
}

func (e *UnresolvedError) Error() string {
	if len(e.Refs) == 0 {
		return fmt.Sprintf("[emit] unresolved_type: partition %s", e.Partition)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "partition %s: %d unresolved type reference(s)\n", e.Partition, len(e.Refs))
	b.WriteString("hint: add the defining header to the partition's traverse list, or add a type_import for an external metadata file\n")
	for _, r := range e.Refs {
		b.WriteString("\n  - `")
		b.WriteString(r.Type)
		b.WriteByte('`')
		if r.Context != "" {
			b.WriteString(" referenced in ")
			b.WriteString(r.Context)
		}
		if r.Namespace != "" {
			b.WriteString(" (expected namespace ")
			b.WriteString(r.Namespace)
			b.WriteByte(')')
		}
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *UnresolvedError) Is(target error) bool {
	_, ok := target.(*UnresolvedError)
	return ok
}
