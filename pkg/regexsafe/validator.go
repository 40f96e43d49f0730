// Package regexsafe decides whether a rule pattern is admissible for the
// linear-time matching dialect used by the classifier.
//
// A pattern is rejected when it uses constructs the dialect cannot express
// (lookaround, backreferences) or when its shape would backtrack
// exponentially in a naive engine (nested quantifiers over overlapping
// characters, repeated ambiguous alternations). The structural check is
// conservative: it may reject patterns that are in fact harmless, it must
// never accept one that is not.
//
// Validation runs once per rule when a rule set is loaded; it is never part
// of the request path.
package regexsafe

import (
	"fmt"
	"regexp/syntax"
)

// DefaultMaxRepetitions bounds the number of repetition operators in a single
// pattern.
const DefaultMaxRepetitions = 25

// Validator checks patterns. The zero value is not usable; use NewValidator.
type Validator struct {
	maxRepetitions int
	flags          syntax.Flags
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxRepetitions overrides the repetition operator budget. Zero or a
// negative value disables the check.
func WithMaxRepetitions(n int) Option {
	return func(v *Validator) {
		v.maxRepetitions = n
	}
}

// NewValidator creates a Validator.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		maxRepetitions: DefaultMaxRepetitions,
		flags:          syntax.Perl,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = NewValidator()

// Validate checks pattern with the default options. A nil error means the
// pattern is safe.
func Validate(pattern string) error {
	return defaultValidator.Validate(pattern)
}

// Validate returns nil when pattern is admissible, or an *UnsafePatternError.
func (v *Validator) Validate(pattern string) error {
	if upe := scanLexical(pattern); upe != nil {
		return upe
	}

	re, err := syntax.Parse(pattern, v.flags)
	if err != nil {
		return reject(pattern, ReasonInvalidSyntax, -1, err.Error())
	}

	if v.maxRepetitions > 0 {
		if n := countRepetitions(re); n > v.maxRepetitions {
			return reject(pattern, ReasonRepetitionLimit, -1,
				fmt.Sprintf("%d repetition operators (limit %d)", n, v.maxRepetitions))
		}
	}

	if reason, node := findAmbiguousRepeat(re); reason != "" {
		return reject(pattern, reason, -1, "ambiguous repetition "+node.String())
	}
	return nil
}

func countRepetitions(re *syntax.Regexp) int {
	n := 0
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		n++
	}
	for _, sub := range re.Sub {
		n += countRepetitions(sub)
	}
	return n
}

// repeatsBody reports whether re can match its body more than once.
func repeatsBody(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus:
		return true
	case syntax.OpRepeat:
		return re.Max == -1 || re.Max > 1
	}
	return false
}

// findAmbiguousRepeat walks the tree and returns the first repetition, bounded
// or not, whose body can be split between iterations in more than one way.
func findAmbiguousRepeat(re *syntax.Regexp) (Reason, *syntax.Regexp) {
	if repeatsBody(re) {
		if reason := checkRepeatBody(re.Sub[0]); reason != "" {
			return reason, re
		}
	}
	for _, sub := range re.Sub {
		if reason, node := findAmbiguousRepeat(sub); reason != "" {
			return reason, node
		}
	}
	return "", nil
}

// source is a part of a repeated body that can consume a variable amount of
// input, making iteration boundaries ambiguous. An ambiguous source is an
// alternation whose branches can start on the same character, so a single
// iteration already has more than one parse.
type source struct {
	alternation bool
	ambiguous   bool
	chars       runeSet
}

// checkRepeatBody reads the body as a cycle, since consecutive iterations
// concatenate. Pins are mandatory single characters no variable part can
// consume; they cut the cycle into segments. The body is accepted only when
// it has a pin and every segment holds variable parts over pairwise disjoint
// characters.
func checkRepeatBody(body *syntax.Regexp) Reason {
	var sources []source
	collectSources(body, &sources)
	if len(sources) == 0 {
		return ""
	}

	var variable runeSet
	onlyAlternation := true
	for _, s := range sources {
		if s.ambiguous {
			return ReasonOverlappingAlternation
		}
		variable = variable.union(s.chars)
		if !s.alternation {
			onlyAlternation = false
		}
	}
	reason := ReasonNestedQuantifier
	if onlyAlternation {
		reason = ReasonOverlappingAlternation
	}

	elems := flatten(body)
	pins := make([]bool, len(elems))
	first := -1
	for i, e := range elems {
		if set, ok := singleChar(e); ok && !set.overlaps(variable) {
			pins[i] = true
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		return reason
	}

	// start after the first pin and wrap around to it, so the parts after the
	// last pin share a segment with the parts before the first one
	var segment []source
	for k := 1; k <= len(elems); k++ {
		i := (first + k) % len(elems)
		if !pins[i] {
			collectSources(elems[i], &segment)
			continue
		}
		if sourcesOverlap(segment) {
			return reason
		}
		segment = segment[:0]
	}
	return ""
}

func collectSources(re *syntax.Regexp, out *[]source) {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest:
		*out = append(*out, source{chars: charsOf(re.Sub[0])})
	case syntax.OpRepeat:
		if re.Min != re.Max {
			*out = append(*out, source{chars: charsOf(re.Sub[0])})
			return
		}
		collectSources(re.Sub[0], out)
	case syntax.OpAlternate:
		switch {
		case alternativesAmbiguous(re.Sub):
			*out = append(*out, source{alternation: true, ambiguous: true, chars: charsOf(re)})
		case anyCanBeEmpty(re.Sub):
			*out = append(*out, source{alternation: true, chars: charsOf(re)})
		default:
			for _, sub := range re.Sub {
				collectSources(sub, out)
			}
		}
	case syntax.OpConcat, syntax.OpCapture:
		for _, sub := range re.Sub {
			collectSources(sub, out)
		}
	}
}

// alternativesAmbiguous reports whether two branches can match the same
// prefix: both can be empty, or both can start on the same character.
func alternativesAmbiguous(subs []*syntax.Regexp) bool {
	empty := 0
	firsts := make([]runeSet, len(subs))
	for i, sub := range subs {
		firsts[i] = firstChars(sub)
		if canBeEmpty(sub) {
			empty++
		}
	}
	if empty > 1 {
		return true
	}
	for i := range firsts {
		for j := i + 1; j < len(firsts); j++ {
			if firsts[i].overlaps(firsts[j]) {
				return true
			}
		}
	}
	return false
}

func anyCanBeEmpty(subs []*syntax.Regexp) bool {
	for _, sub := range subs {
		if canBeEmpty(sub) {
			return true
		}
	}
	return false
}

func sourcesOverlap(sources []source) bool {
	for i := range sources {
		for j := i + 1; j < len(sources); j++ {
			if sources[i].chars.overlaps(sources[j].chars) {
				return true
			}
		}
	}
	return false
}

// flatten lists the elements of body in order, looking through captures and
// nested concatenations and splitting literal strings into characters.
func flatten(re *syntax.Regexp) []*syntax.Regexp {
	switch re.Op {
	case syntax.OpCapture:
		return flatten(re.Sub[0])
	case syntax.OpConcat:
		var out []*syntax.Regexp
		for _, sub := range re.Sub {
			out = append(out, flatten(sub)...)
		}
		return out
	case syntax.OpLiteral:
		if len(re.Rune) > 1 {
			out := make([]*syntax.Regexp, len(re.Rune))
			for i, r := range re.Rune {
				out[i] = &syntax.Regexp{Op: syntax.OpLiteral, Flags: re.Flags, Rune: []rune{r}}
			}
			return out
		}
	}
	return []*syntax.Regexp{re}
}

// singleChar returns the character set of an element that always consumes
// exactly one character.
func singleChar(re *syntax.Regexp) (runeSet, bool) {
	switch re.Op {
	case syntax.OpLiteral:
		if len(re.Rune) == 1 {
			return literalSet(re.Rune[0], re.Flags&syntax.FoldCase != 0), true
		}
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return charsOf(re), true
	}
	return nil, false
}

func canBeEmpty(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpLiteral:
		return len(re.Rune) == 0
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return false
	case syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpPlus, syntax.OpCapture:
		return canBeEmpty(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min == 0 || canBeEmpty(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !canBeEmpty(sub) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if canBeEmpty(sub) {
				return true
			}
		}
		return false
	case syntax.OpNoMatch:
		return false
	}
	// empty-width assertions and OpEmptyMatch
	return true
}

func firstChars(re *syntax.Regexp) runeSet {
	switch re.Op {
	case syntax.OpLiteral:
		if len(re.Rune) == 0 {
			return nil
		}
		return literalSet(re.Rune[0], re.Flags&syntax.FoldCase != 0)
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return charsOf(re)
	case syntax.OpConcat:
		var set runeSet
		for _, sub := range re.Sub {
			set = set.union(firstChars(sub))
			if !canBeEmpty(sub) {
				break
			}
		}
		return set
	case syntax.OpAlternate:
		var set runeSet
		for _, sub := range re.Sub {
			set = set.union(firstChars(sub))
		}
		return set
	case syntax.OpCapture, syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		return firstChars(re.Sub[0])
	}
	return nil
}

// charsOf returns every character re can consume.
func charsOf(re *syntax.Regexp) runeSet {
	switch re.Op {
	case syntax.OpLiteral:
		var set runeSet
		for _, r := range re.Rune {
			set = set.union(literalSet(r, re.Flags&syntax.FoldCase != 0))
		}
		return set
	case syntax.OpCharClass:
		set := make(runeSet, 0, len(re.Rune)/2)
		for i := 0; i+1 < len(re.Rune); i += 2 {
			set = append(set, runeRange{re.Rune[i], re.Rune[i+1]})
		}
		return set
	case syntax.OpAnyChar:
		return anyChar
	case syntax.OpAnyCharNotNL:
		return anyCharNotNL
	}
	var set runeSet
	for _, sub := range re.Sub {
		set = set.union(charsOf(sub))
	}
	return set
}
