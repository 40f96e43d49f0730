package regexsafe

import (
	"unicode"
	"unicode/utf8"
)

type runeRange struct {
	lo, hi rune
}

// runeSet is an unordered list of inclusive ranges. Sets stay small (a few
// classes per pattern), so overlap is checked pairwise.
type runeSet []runeRange

var (
	anyChar      = runeSet{{0, utf8.MaxRune}}
	anyCharNotNL = runeSet{{0, '\n' - 1}, {'\n' + 1, utf8.MaxRune}}
)

func literalSet(r rune, fold bool) runeSet {
	set := runeSet{{r, r}}
	if fold {
		for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
			set = append(set, runeRange{f, f})
		}
	}
	return set
}

func (s runeSet) union(o runeSet) runeSet {
	if len(o) == 0 {
		return s
	}
	out := make(runeSet, 0, len(s)+len(o))
	out = append(out, s...)
	return append(out, o...)
}

func (s runeSet) overlaps(o runeSet) bool {
	for _, a := range s {
		for _, b := range o {
			if a.lo <= b.hi && b.lo <= a.hi {
				return true
			}
		}
	}
	return false
}
