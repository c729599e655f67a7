// Package diag implements the closed diagnostic taxonomy from spec section
// 7: one Kind per case, accumulated per sprite, surfaced only after the
// whole target finishes emitting (spec section 5 — diagnostics never abort
// emission mid-sprite).
package diag

import (
	"fmt"

	"github.com/goboscript/goboc/internal/ast"
)

// Kind is the closed set of diagnosable conditions. Unlike an internal
// invariant violation (internal/invariant), every Kind here is caused by the
// user's source and is always recoverable: emission continues best-effort.
type Kind int

const (
	UnrecognizedVariable Kind = iota
	UnrecognizedStruct
	UnrecognizedFunction
	StructDoesNotHaveField
	NotStruct
	TypeMismatch
	UnusedProc
	UnusedFunc
	UnusedArg
	UnusedStruct
	UnusedEnum
	FollowedByUnreachableCode
	NoCostumes
	IOError
)

func (k Kind) String() string {
	switch k {
	case UnrecognizedVariable:
		return "unrecognized variable"
	case UnrecognizedStruct:
		return "unrecognized struct"
	case UnrecognizedFunction:
		return "unrecognized function"
	case StructDoesNotHaveField:
		return "struct does not have field"
	case NotStruct:
		return "not a struct"
	case TypeMismatch:
		return "type mismatch"
	case UnusedProc:
		return "unused procedure"
	case UnusedFunc:
		return "unused function"
	case UnusedArg:
		return "unused argument"
	case UnusedStruct:
		return "unused struct"
	case UnusedEnum:
		return "unused enum"
	case FollowedByUnreachableCode:
		return "followed by unreachable code"
	case NoCostumes:
		return "no costumes"
	case IOError:
		return "I/O error"
	default:
		return "diagnostic"
	}
}

// Diagnostic attaches a Kind to the source span it was reported against,
// plus whatever Kind-specific detail and optional "did you mean" suggestion
// (spec SPEC_FULL.md 4.11) apply.
type Diagnostic struct {
	Kind Kind
	Span ast.Span

	Name       string // UnrecognizedVariable / UnrecognizedFunction / UnusedProc / UnusedFunc / UnusedArg
	StructName string // UnrecognizedStruct / StructDoesNotHaveField / UnusedStruct
	FieldName  string // StructDoesNotHaveField
	EnumName   string // UnusedEnum
	Expected   ast.Type
	Given      ast.Type
	Err        error // IOError

	Suggestion string // set when a close match exists among declared names
}

func (d Diagnostic) Message() string {
	switch d.Kind {
	case UnrecognizedVariable:
		return withSuggestion(fmt.Sprintf("unrecognized variable %q", d.Name), d.Suggestion)
	case UnrecognizedStruct:
		return fmt.Sprintf("unrecognized struct %q", d.StructName)
	case UnrecognizedFunction:
		return withSuggestion(fmt.Sprintf("unrecognized function %q", d.Name), d.Suggestion)
	case StructDoesNotHaveField:
		return fmt.Sprintf("struct %q does not have field %q", d.StructName, d.FieldName)
	case NotStruct:
		return "field access on a non-struct value"
	case TypeMismatch:
		return fmt.Sprintf("type mismatch: expected %s, given %s", d.Expected, d.Given)
	case UnusedProc:
		return fmt.Sprintf("procedure %q is never called", d.Name)
	case UnusedFunc:
		return fmt.Sprintf("function %q is never called", d.Name)
	case UnusedArg:
		return fmt.Sprintf("argument %q is never used", d.Name)
	case UnusedStruct:
		return fmt.Sprintf("struct %q is never used", d.StructName)
	case UnusedEnum:
		return fmt.Sprintf("enum %q is never used", d.EnumName)
	case FollowedByUnreachableCode:
		return "statement follows a terminator and is unreachable"
	case NoCostumes:
		return "sprite has no costumes"
	case IOError:
		return fmt.Sprintf("I/O error: %v", d.Err)
	default:
		return d.Kind.String()
	}
}

func withSuggestion(msg, suggestion string) string {
	if suggestion == "" {
		return msg
	}
	return fmt.Sprintf("%s (did you mean %q?)", msg, suggestion)
}

// IsError classifies a Kind for exit-code purposes: every Kind except the
// Unused* family and NoCostumes blocks a clean build.
func (k Kind) IsError() bool {
	switch k {
	case UnusedProc, UnusedFunc, UnusedArg, UnusedStruct, UnusedEnum, NoCostumes:
		return false
	default:
		return true
	}
}

// Sink accumulates diagnostics for a single sprite. It is owned exclusively
// by the sprite being emitted (spec section 5: no sharing across targets).
type Sink struct {
	Sprite      string
	Diagnostics []Diagnostic
}

func NewSink(sprite string) *Sink {
	return &Sink{Sprite: sprite}
}

// Report appends a diagnostic. Emission always continues after Report
// returns — callers never treat a diagnosable error as fatal.
func (s *Sink) Report(d Diagnostic) {
	s.Diagnostics = append(s.Diagnostics, d)
}

// HasErrors reports whether any accumulated diagnostic is error-severity.
func (s *Sink) HasErrors() bool {
	for _, d := range s.Diagnostics {
		if d.Kind.IsError() {
			return true
		}
	}
	return false
}
