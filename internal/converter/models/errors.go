package models

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// Conversion errors
// ============================================================

// ErrorKind classifies a fatal conversion failure.
type ErrorKind int

const (
	KindMalformedCommand ErrorKind = iota + 1
	KindUnresolvedReference
	KindAmbiguousReference
	KindUnsupportedGeometry
	KindInconsistentExport
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedCommand:
		return "malformed command"
	case KindUnresolvedReference:
		return "unresolved reference"
	case KindAmbiguousReference:
		return "ambiguous reference"
	case KindUnsupportedGeometry:
		return "unsupported geometry"
	case KindInconsistentExport:
		return "inconsistent export"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; any *Error of the same kind matches.
var (
	ErrMalformedCommand    = &Error{Kind: KindMalformedCommand}
	ErrUnresolvedReference = &Error{Kind: KindUnresolvedReference}
	ErrAmbiguousReference  = &Error{Kind: KindAmbiguousReference}
	ErrUnsupportedGeometry = &Error{Kind: KindUnsupportedGeometry}
	ErrInconsistentExport  = &Error{Kind: KindInconsistentExport}
)

// Error carries the offending command and attribute of a conversion failure.
type Error struct {
	Kind       ErrorKind
	Identifier string
	Keyword    string
	Attribute  string
	Value      string
	Line       int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Keyword != "" || e.Identifier != "" {
		b.WriteString(": ")
		if e.Identifier != "" {
			fmt.Fprintf(&b, "%q ", e.Identifier)
		}
		b.WriteString(e.Keyword)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, ": %s", e.Attribute)
		if e.Value != "" {
			fmt.Fprintf(&b, " = %s", e.Value)
		}
	} else if e.Value != "" {
		fmt.Fprintf(&b, ": %q", e.Value)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can use the package sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError builds an error for the given command.
func NewError(kind ErrorKind, cmd *Command, attribute, value, message string) *Error {
	e := &Error{
		Kind:      kind,
		Attribute: attribute,
		Value:     value,
		Message:   message,
	}
	if cmd != nil {
		e.Identifier = cmd.Identifier
		e.Keyword = cmd.Keyword
		e.Line = cmd.Line
	}
	return e
}

// KindOf returns the kind of a conversion error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
