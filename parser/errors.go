package parser

import (
	"strconv"
	"strings"
)

// Kind categorizes a decode failure.
type Kind string

const (
	KindGrammarMismatch   Kind = "grammar_mismatch"
	KindInvalidCount      Kind = "invalid_count"
	KindIndexMismatch     Kind = "index_mismatch"
	KindFieldTooLong      Kind = "field_too_long"
	KindUnknownDefineType Kind = "unknown_define_type"
	KindUnexpectedEOF     Kind = "unexpected_eof"
	KindIO                Kind = "io"
	KindAllocation        Kind = "allocation"
)

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrGrammarMismatch   = &Error{Kind: KindGrammarMismatch}
	ErrInvalidCount      = &Error{Kind: KindInvalidCount}
	ErrIndexMismatch     = &Error{Kind: KindIndexMismatch}
	ErrFieldTooLong      = &Error{Kind: KindFieldTooLong}
	ErrUnknownDefineType = &Error{Kind: KindUnknownDefineType}
	ErrUnexpectedEOF     = &Error{Kind: KindUnexpectedEOF}
	ErrIO                = &Error{Kind: KindIO}
	ErrAllocation        = &Error{Kind: KindAllocation}
)

// Error is the single failure type returned by Decode.
type Error struct {
	Kind Kind

	// Section is the top-level section being decoded ("Defines", "Structs", ...).
	Section string

	// Offset is the number of bytes consumed when the failure was detected,
	// or -1 when unknown.
	Offset int64

	// Expected holds the literal that was required, for grammar failures.
	Expected string

	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString("apidump: ")
	if e.Section != "" {
		b.WriteString(strings.ToLower(e.Section))
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		b.WriteString(" at offset ")
		b.WriteString(strconv.FormatInt(e.Offset, 10))
	}

	if e.Expected != "" {
		b.WriteString(": expected ")
		b.WriteString(strconv.Quote(e.Expected))
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

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}
