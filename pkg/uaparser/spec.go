package uaparser

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

const (
	keyRegex     = "regex"
	keyRegexFlag = "regex_flag"
	keyVersion   = "version"
)

// Specification is a decoded, uncompiled rule specification.
type Specification struct {
	// Version is the optional catalog version.
	Version *semver.Version

	UserAgent []RuleSpec
	OS        []RuleSpec
	Device    []RuleSpec

	// Unknown lists record keys outside the layout. Compile ignores them.
	Unknown []UnknownKey
}

// UnknownKey is a record key Compile ignores.
type UnknownKey struct {
	Category Category
	Index    int
	Key      string
}

// Rules returns the rule list of category c.
func (s *Specification) Rules(c Category) []RuleSpec {
	switch c {
	case CategoryUserAgent:
		return s.UserAgent
	case CategoryOS:
		return s.OS
	case CategoryDevice:
		return s.Device
	}
	return nil
}

func (s *Specification) setRules(c Category, rules []RuleSpec) {
	switch c {
	case CategoryUserAgent:
		s.UserAgent = rules
	case CategoryOS:
		s.OS = rules
	case CategoryDevice:
		s.Device = rules
	}
}

// Len returns the total number of rules.
func (s *Specification) Len() int {
	return len(s.UserAgent) + len(s.OS) + len(s.Device)
}

// ParseSpecification decodes a YAML rule specification with
// user_agent_parsers, os_parsers and device_parsers sections.
//
// Records are read as scalar maps so replacement values keep their source
// spelling ("10.10" stays "10.10").
func ParseSpecification(data []byte) (*Specification, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSpecification, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, ErrEmptySpecification
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, ErrEmptySpecification
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document is not a mapping", ErrMalformedSpecification)
	}

	sections := make(map[string]*yaml.Node, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		sections[root.Content[i].Value] = root.Content[i+1]
	}

	spec := &Specification{}
	found := false
	for _, c := range Categories {
		node, ok := sections[c.Section()]
		if !ok {
			continue
		}
		found = true
		rules, unknown, err := parseSection(c, node)
		if err != nil {
			return nil, err
		}
		spec.setRules(c, rules)
		spec.Unknown = append(spec.Unknown, unknown...)
	}
	if !found {
		return nil, ErrEmptySpecification
	}

	if node, ok := sections[keyVersion]; ok && !isNull(node) {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: version is not a scalar", ErrMalformedSpecification)
		}
		v, err := semver.NewVersion(node.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: version %q: %v", ErrMalformedSpecification, node.Value, err)
		}
		spec.Version = v
	}
	return spec, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func parseSection(c Category, node *yaml.Node) ([]RuleSpec, []UnknownKey, error) {
	if isNull(node) {
		return []RuleSpec{}, nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, nil, fmt.Errorf("%w: section %s is not a list", ErrMalformedSpecification, c.Section())
	}

	schema := schemaFor(c)
	rules := make([]RuleSpec, 0, len(node.Content))
	var unknown []UnknownKey
	for i, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return nil, nil, &RuleError{Category: c, Index: i, Err: fmt.Errorf("%w: record is not a mapping", ErrMalformedSpecification)}
		}
		rule, extra, err := parseRecord(schema, item)
		if err != nil {
			return nil, nil, &RuleError{Category: c, Index: i, Err: err}
		}
		for _, k := range extra {
			unknown = append(unknown, UnknownKey{Category: c, Index: i, Key: k})
		}
		rules = append(rules, rule)
	}
	return rules, unknown, nil
}

func parseRecord(schema *categorySchema, record *yaml.Node) (RuleSpec, []string, error) {
	rule := RuleSpec{Templates: map[FieldName]string{}}
	var unknown []string

	for i := 0; i+1 < len(record.Content); i += 2 {
		key, value := record.Content[i].Value, record.Content[i+1]
		if isNull(value) {
			continue
		}
		if value.Kind == yaml.AliasNode && value.Alias != nil {
			value = value.Alias
		}
		if value.Kind != yaml.ScalarNode {
			return RuleSpec{}, nil, fmt.Errorf("%w: %s: value is not a scalar", ErrMalformedSpecification, key)
		}
		s := value.Value
		switch key {
		case keyRegex:
			rule.Regex = s
		case keyRegexFlag:
			if s != "i" {
				return RuleSpec{}, nil, fmt.Errorf("%w: unsupported regex_flag %q", ErrMalformedSpecification, s)
			}
			rule.CaseInsensitive = true
		default:
			idx, ok := schema.fieldByKey(key)
			if !ok {
				unknown = append(unknown, key)
				continue
			}
			rule.Templates[schema.fields[idx].name] = s
		}
	}
	if rule.Regex == "" {
		return RuleSpec{}, nil, fmt.Errorf("%w: missing regex", ErrMalformedSpecification)
	}
	sort.Strings(unknown)
	return rule, unknown, nil
}
