package regexsafe

import "strings"

// scanLexical rejects constructs RE2 cannot parse but which need their own
// reason: lookaround and backreferences. Escapes, \Q...\E quoting and
// character classes are skipped so literal text is never misread.
func scanLexical(p string) *UnsafePatternError {
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]

		if c == '\\' {
			if i+1 >= len(p) {
				return nil
			}
			next := p[i+1]
			if next == 'Q' {
				end := strings.Index(p[i+2:], `\E`)
				if end < 0 {
					return nil
				}
				i += end + 3
				continue
			}
			if !inClass {
				if next >= '1' && next <= '9' {
					return reject(p, ReasonBackreference, i, "numbered backreference "+p[i:i+2])
				}
				if (next == 'k' || next == 'g') && i+2 < len(p) && strings.ContainsRune(`<{'0123456789-`, rune(p[i+2])) {
					return reject(p, ReasonBackreference, i, "named or relative backreference")
				}
			}
			i++
			continue
		}

		if inClass {
			if c == '[' && i+1 < len(p) && p[i+1] == ':' {
				if end := strings.Index(p[i+2:], ":]"); end >= 0 {
					i += end + 3
					continue
				}
			}
			if c == ']' {
				inClass = false
			}
			continue
		}

		switch c {
		case '[':
			inClass = true
			j := i + 1
			if j < len(p) && p[j] == '^' {
				j++
			}
			// a leading ']' is a literal member of the class
			if j < len(p) && p[j] == ']' {
				i = j
			}
		case '(':
			rest := p[i:]
			switch {
			case strings.HasPrefix(rest, "(?="), strings.HasPrefix(rest, "(?!"):
				return reject(p, ReasonLookahead, i, "lookahead assertion")
			case strings.HasPrefix(rest, "(?<="), strings.HasPrefix(rest, "(?<!"):
				return reject(p, ReasonLookbehind, i, "lookbehind assertion")
			}
		}
	}
	return nil
}
