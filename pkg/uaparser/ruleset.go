package uaparser

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/vulntor/uaparser/pkg/regexengine"
	"github.com/vulntor/uaparser/pkg/regexsafe"
)

// RuleSet is an immutable snapshot of three compiled rule lists.
type RuleSet struct {
	version  *semver.Version
	source   string
	engine   string
	loadedAt time.Time
	rules    [numCategories][]*Rule
}

// Version returns the catalog version, or nil when the specification
// declared none.
func (rs *RuleSet) Version() *semver.Version { return rs.version }

// Source describes where the rules were loaded from.
func (rs *RuleSet) Source() string { return rs.source }

// Engine returns the regex engine name the rules were compiled with.
func (rs *RuleSet) Engine() string { return rs.engine }

// LoadedAt returns the compile time.
func (rs *RuleSet) LoadedAt() time.Time { return rs.loadedAt }

// Rules returns a copy of the ordered rule list for c.
func (rs *RuleSet) Rules(c Category) []*Rule {
	out := make([]*Rule, len(rs.rules[c]))
	copy(out, rs.rules[c])
	return out
}

// Rule returns the rule at index i of category c.
func (rs *RuleSet) Rule(c Category, i int) (*Rule, bool) {
	if i < 0 || i >= len(rs.rules[c]) {
		return nil, false
	}
	return rs.rules[c][i], true
}

// Len returns the number of rules in category c.
func (rs *RuleSet) Len(c Category) int { return len(rs.rules[c]) }

// Total returns the number of rules across all categories.
func (rs *RuleSet) Total() int {
	n := 0
	for _, c := range Categories {
		n += len(rs.rules[c])
	}
	return n
}

// VersionString returns the catalog version or "" when unset.
func (rs *RuleSet) VersionString() string {
	if rs.version == nil {
		return ""
	}
	return rs.version.String()
}

type compileConfig struct {
	engine    regexengine.Engine
	validator *regexsafe.Validator
	source    string
	now       func() time.Time
}

// CompileOption configures Compile and the loaders built on it.
type CompileOption func(*compileConfig)

// WithEngine selects the regex engine. Defaults to regexengine.Default().
func WithEngine(e regexengine.Engine) CompileOption {
	return func(c *compileConfig) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithPatternValidator replaces the default pattern safety validator.
func WithPatternValidator(v *regexsafe.Validator) CompileOption {
	return func(c *compileConfig) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithSource labels the rule set with its origin.
func WithSource(source string) CompileOption {
	return func(c *compileConfig) {
		c.source = source
	}
}

func newCompileConfig(opts []CompileOption) *compileConfig {
	cfg := &compileConfig{
		engine:    regexengine.Default(),
		validator: regexsafe.NewValidator(),
		source:    "inline",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Compile validates and compiles every rule of spec. A single unsafe or
// uncompilable pattern fails the whole specification with a *RuleError.
func Compile(spec *Specification, opts ...CompileOption) (*RuleSet, error) {
	if spec == nil {
		return nil, ErrEmptySpecification
	}
	cfg := newCompileConfig(opts)

	rs := &RuleSet{
		version:  spec.Version,
		source:   cfg.source,
		engine:   cfg.engine.Name(),
		loadedAt: cfg.now(),
	}
	for _, c := range Categories {
		specs := spec.Rules(c)
		compiled := make([]*Rule, 0, len(specs))
		for i, rspec := range specs {
			rule, err := compileRule(cfg, c, i, rspec)
			if err != nil {
				return nil, &RuleError{Category: c, Index: i, Err: err}
			}
			compiled = append(compiled, rule)
		}
		rs.rules[c] = compiled
	}
	return rs, nil
}

func compileRule(cfg *compileConfig, c Category, index int, spec RuleSpec) (*Rule, error) {
	pattern := spec.Pattern()
	if err := cfg.validator.Validate(pattern); err != nil {
		return nil, err
	}
	re, err := cfg.engine.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", pattern, err)
	}

	explicit := make(map[FieldName]string, len(spec.Templates))
	for k, v := range spec.Templates {
		explicit[k] = v
	}
	return &Rule{
		category:  c,
		index:     index,
		pattern:   pattern,
		re:        re,
		templates: resolveTemplates(schemaFor(c), explicit),
		explicit:  explicit,
	}, nil
}

func emptyRuleSet() *RuleSet {
	return &RuleSet{source: "empty", engine: regexengine.Default().Name(), loadedAt: time.Now()}
}
