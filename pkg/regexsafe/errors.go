package regexsafe

import (
	"errors"
	"fmt"
)

// Reason identifies why a pattern was rejected.
type Reason string

const (
	ReasonLookahead              Reason = "lookahead"
	ReasonLookbehind             Reason = "lookbehind"
	ReasonBackreference          Reason = "backreference"
	ReasonNestedQuantifier       Reason = "nested_quantifier"
	ReasonOverlappingAlternation Reason = "overlapping_alternation"
	ReasonRepetitionLimit        Reason = "repetition_limit"
	ReasonInvalidSyntax          Reason = "invalid_syntax"
)

// ErrUnsafePattern is the sentinel every rejection wraps.
var ErrUnsafePattern = errors.New("unsafe pattern")

// UnsafePatternError describes a rejected pattern. Offset is the byte offset
// of the offending construct in the pattern source, or -1 when the rejection
// comes from the parsed tree rather than a lexical position.
type UnsafePatternError struct {
	Pattern string
	Reason  Reason
	Offset  int
	Detail  string
}

func (e *UnsafePatternError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrUnsafePattern, e.Reason)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *UnsafePatternError) Unwrap() error {
	return ErrUnsafePattern
}

// IsUnsafe reports whether err is a pattern rejection.
func IsUnsafe(err error) bool {
	return errors.Is(err, ErrUnsafePattern)
}

// ReasonOf extracts the rejection reason from err.
func ReasonOf(err error) (Reason, bool) {
	var upe *UnsafePatternError
	if errors.As(err, &upe) {
		return upe.Reason, true
	}
	return "", false
}

func reject(pattern string, reason Reason, offset int, detail string) *UnsafePatternError {
	return &UnsafePatternError{Pattern: pattern, Reason: reason, Offset: offset, Detail: detail}
}
