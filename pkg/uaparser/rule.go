package uaparser

import (
	"fmt"
	"strings"

	"github.com/vulntor/uaparser/pkg/regexengine"
)

// Category is one of the three independent classification dimensions.
type Category int

const (
	CategoryUserAgent Category = iota
	CategoryOS
	CategoryDevice

	numCategories = 3
)

// Categories lists every category in evaluation order.
var Categories = []Category{CategoryUserAgent, CategoryOS, CategoryDevice}

// String returns the category's key in a Result ("ua", "os", "device").
func (c Category) String() string {
	switch c {
	case CategoryUserAgent:
		return "ua"
	case CategoryOS:
		return "os"
	case CategoryDevice:
		return "device"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Section returns the specification section holding the category's rules.
func (c Category) Section() string {
	return schemaFor(c).section
}

// ParseCategory resolves "ua", "os", "device" or a section name.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if s == c.String() || s == c.Section() {
			return c, nil
		}
	}
	switch s {
	case "browser", "user_agent":
		return CategoryUserAgent, nil
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// FieldName names an output field of a descriptor.
type FieldName string

const (
	FieldFamily     FieldName = "family"
	FieldMajor      FieldName = "major"
	FieldMinor      FieldName = "minor"
	FieldPatch      FieldName = "patch"
	FieldPatchMinor FieldName = "patch_minor"
	FieldBrand      FieldName = "brand"
	FieldModel      FieldName = "model"
)

type fieldSchema struct {
	name     FieldName
	key      string // replacement key in the specification
	template string // default template, "" for none
	fallback Field
}

type categorySchema struct {
	category Category
	section  string
	fields   []fieldSchema
}

var schemas = [numCategories]*categorySchema{
	CategoryUserAgent: {
		category: CategoryUserAgent,
		section:  "user_agent_parsers",
		fields: []fieldSchema{
			{FieldFamily, "family_replacement", "$1", Some("Other")},
			{FieldMajor, "v1_replacement", "$2", Absent},
			{FieldMinor, "v2_replacement", "$3", Absent},
			{FieldPatch, "v3_replacement", "$4", Absent},
		},
	},
	CategoryOS: {
		category: CategoryOS,
		section:  "os_parsers",
		fields: []fieldSchema{
			{FieldFamily, "os_replacement", "$1", Some("Other")},
			{FieldMajor, "os_v1_replacement", "$2", Absent},
			{FieldMinor, "os_v2_replacement", "$3", Absent},
			{FieldPatch, "os_v3_replacement", "$4", Absent},
			{FieldPatchMinor, "os_v4_replacement", "$5", Absent},
		},
	},
	CategoryDevice: {
		category: CategoryDevice,
		section:  "device_parsers",
		fields: []fieldSchema{
			{FieldFamily, "device_replacement", "$1", Some("Other")},
			{FieldBrand, "brand_replacement", "", Absent},
			{FieldModel, "model_replacement", "$1", Absent},
		},
	},
}

func schemaFor(c Category) *categorySchema {
	return schemas[c]
}

// Fields lists the output fields of the category in descriptor order.
func (c Category) Fields() []FieldName {
	s := schemaFor(c)
	out := make([]FieldName, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.name
	}
	return out
}

func (s *categorySchema) fieldByKey(key string) (int, bool) {
	for i, f := range s.fields {
		if f.key == key {
			return i, true
		}
	}
	return 0, false
}

func (s *categorySchema) fallbacks() []Field {
	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.fallback
	}
	return out
}

// RuleSpec is an uncompiled rule as read from a specification.
type RuleSpec struct {
	Regex           string
	CaseInsensitive bool
	Templates       map[FieldName]string
}

// Pattern returns the expression handed to the regex engine.
func (r RuleSpec) Pattern() string {
	if r.CaseInsensitive {
		return "(?i)" + r.Regex
	}
	return r.Regex
}

// Rule is a compiled, immutable classification rule.
type Rule struct {
	category  Category
	index     int
	pattern   string
	re        regexengine.Pattern
	templates []Template
	explicit  map[FieldName]string
}

// Category returns the list the rule belongs to.
func (r *Rule) Category() Category { return r.category }

// Index returns the rule's position in its list.
func (r *Rule) Index() int { return r.index }

// Pattern returns the compiled expression source.
func (r *Rule) Pattern() string { return r.pattern }

// Template returns the template the rule declares for field, if any.
// Fields without one use the category default.
func (r *Rule) Template(field FieldName) (string, bool) {
	t, ok := r.explicit[field]
	return t, ok
}

// Match runs the rule against input and returns the extracted field values
// in descriptor order, or false when the pattern does not match.
func (r *Rule) Match(input string) ([]Field, bool) {
	loc := r.re.FindStringSubmatchIndex(input)
	if loc == nil {
		return nil, false
	}
	return extract(r, schemaFor(r.category), submatches(input, loc)), true
}
