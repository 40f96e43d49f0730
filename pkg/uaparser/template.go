package uaparser

import "strings"

// Template is a compiled output template: literal text with $1..$9
// references to capture groups. Any other '$' is literal.
type Template struct {
	source string
	parts  []templatePart
	set    bool
}

type templatePart struct {
	literal string
	group   int // 0 for a literal span
}

// CompileTemplate parses s into a Template.
func CompileTemplate(s string) Template {
	t := Template{source: s, set: true}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, templatePart{literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '$' && i+1 < len(s) && s[i+1] >= '1' && s[i+1] <= '9' {
			flush()
			t.parts = append(t.parts, templatePart{group: int(s[i+1] - '0')})
			i++
			continue
		}
		lit.WriteByte(s[i])
	}
	flush()
	return t
}

// String returns the template source.
func (t Template) String() string { return t.source }

// IsZero reports whether t is the empty template, which always expands to
// Absent.
func (t Template) IsZero() bool { return !t.set }

// Groups returns the capture group numbers the template references.
func (t Template) Groups() []int {
	var out []int
	for _, p := range t.parts {
		if p.group > 0 {
			out = append(out, p.group)
		}
	}
	return out
}

// Expand substitutes capture groups into the template. groups[0] is the
// whole match; a reference to a group that is missing, did not participate
// or matched empty contributes "". The result is trimmed and an empty result
// is Absent.
func (t Template) Expand(groups []string) Field {
	if !t.set {
		return Absent
	}
	var b strings.Builder
	for _, p := range t.parts {
		if p.group == 0 {
			b.WriteString(p.literal)
			continue
		}
		if p.group < len(groups) {
			b.WriteString(groups[p.group])
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return Absent
	}
	return Some(out)
}
