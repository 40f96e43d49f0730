package uaparser

// submatches converts a FindStringSubmatchIndex result into group strings;
// non-participating groups become "".
func submatches(input string, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		start, end := loc[2*i], loc[2*i+1]
		if start >= 0 && end >= 0 {
			groups[i] = input[start:end]
		}
	}
	return groups
}

// extract resolves every declared field of the schema for a matched rule:
// the rule's template or the category default template, then the fallback
// when the expansion is absent.
func extract(r *Rule, schema *categorySchema, groups []string) []Field {
	values := make([]Field, len(schema.fields))
	for i, f := range schema.fields {
		v := r.templates[i].Expand(groups)
		if !v.IsSet() {
			v = f.fallback
		}
		values[i] = v
	}
	return values
}

// resolveTemplates picks the rule's template for each field, falling back to
// the category default template.
func resolveTemplates(schema *categorySchema, explicit map[FieldName]string) []Template {
	out := make([]Template, len(schema.fields))
	for i, f := range schema.fields {
		if s, ok := explicit[f.name]; ok {
			out[i] = CompileTemplate(s)
			continue
		}
		if f.template != "" {
			out[i] = CompileTemplate(f.template)
		}
	}
	return out
}
