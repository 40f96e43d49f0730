package uaparser

import "context"

// outcome is the classification of one category: field values in
// descriptor order and the index of the matching rule, or -1.
type outcome struct {
	values []Field
	rule   int
}

// classify evaluates rules in order against input and returns the first
// match's fields, or the category fallbacks when nothing matches. The
// context is checked between rules, never during a match.
func classify(ctx context.Context, input string, rules []*Rule, schema *categorySchema) (outcome, error) {
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return outcome{rule: -1}, err
		}
		if values, ok := r.Match(input); ok {
			return outcome{values: values, rule: r.index}, nil
		}
	}
	return outcome{values: schema.fallbacks(), rule: -1}, nil
}
