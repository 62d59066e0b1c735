// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an extraction failure.
type Kind int

const (
	NoFenceFound Kind = iota + 1
	ShapeMismatch
	MalformedLiteral
	NoLiteralFound
)

func (k Kind) String() string {
	switch k {
	case NoFenceFound:
		return "no fence found"
	case ShapeMismatch:
		return "shape mismatch"
	case MalformedLiteral:
		return "malformed literal"
	case NoLiteralFound:
		return "no literal found"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is against an *ExtractionError of the same kind.
var (
	ErrNoFenceFound     = &ExtractionError{Kind: NoFenceFound}
	ErrShapeMismatch    = &ExtractionError{Kind: ShapeMismatch}
	ErrMalformedLiteral = &ExtractionError{Kind: MalformedLiteral}
	ErrNoLiteralFound   = &ExtractionError{Kind: NoLiteralFound}
)

// ExtractionError reports why a span of model output could not be turned
// into the requested shape. Field and Block are filled in by the mapper so a
// failure names the part of the output that was malformed.
type ExtractionError struct {
	Kind  Kind
	Field string
	Block string
	Err   error
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Field != "" {
		fmt.Fprintf(&b, " in field %q", e.Field)
	}
	if e.Block != "" {
		fmt.Fprintf(&b, " (block %q)", e.Block)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Is matches any ExtractionError of the same Kind.
func (e *ExtractionError) Is(target error) bool {
	var t *ExtractionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *ExtractionError {
	return &ExtractionError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// withContext annotates err with the field and block being parsed.
func withContext(err error, field, block string) error {
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		return err
	}
	out := *ee
	out.Field = field
	out.Block = block
	return &out
}
