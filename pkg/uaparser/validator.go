package uaparser

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vulntor/uaparser/pkg/regexengine"
	"github.com/vulntor/uaparser/pkg/regexsafe"
)

// ValidationError is one finding of a specification audit.
type ValidationError struct {
	Category Category `json:"-"`
	Section  string   `json:"section,omitempty"`
	Index    int      `json:"index"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity string   `json:"severity"` // "error" or "warning"
}

// Location returns "section[index]", or "specification" for document-level
// findings.
func (e ValidationError) Location() string {
	if e.Section == "" {
		return "specification"
	}
	return fmt.Sprintf("%s[%d]", e.Section, e.Index)
}

// SpecValidationResult contains the findings of an audit.
type SpecValidationResult struct {
	Errors    []ValidationError `json:"errors"`
	Warnings  []ValidationError `json:"warnings"`
	RuleCount int               `json:"rule_count"`
	Version   string            `json:"version,omitempty"`
}

// IsValid returns true if there are no errors (warnings are allowed).
func (r *SpecValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator audits a specification and reports every problem instead of
// stopping at the first. Compile remains the authority on loadability.
type Validator struct {
	strict   bool // promote warnings to errors
	patterns *regexsafe.Validator
	engine   regexengine.Engine
}

// NewValidator creates a Validator. In strict mode warnings are reported as
// errors.
func NewValidator(strict bool, opts ...CompileOption) *Validator {
	cfg := newCompileConfig(opts)
	return &Validator{strict: strict, patterns: cfg.validator, engine: cfg.engine}
}

// ValidateBytes parses data and audits the result. Parse failures are
// reported as a single document-level error.
func (v *Validator) ValidateBytes(data []byte) *SpecValidationResult {
	spec, err := ParseSpecification(data)
	if err != nil {
		res := &SpecValidationResult{Errors: []ValidationError{}, Warnings: []ValidationError{}}
		issue := ValidationError{Index: -1, Field: "document", Message: err.Error(), Severity: "error"}
		var re *RuleError
		if errors.As(err, &re) {
			issue.Category = re.Category
			issue.Section = re.Category.Section()
			issue.Index = re.Index
			issue.Field = "record"
			issue.Message = re.Err.Error()
		}
		res.Errors = append(res.Errors, issue)
		return res
	}
	return v.Validate(spec)
}

// Validate audits every rule of spec.
func (v *Validator) Validate(spec *Specification) *SpecValidationResult {
	result := &SpecValidationResult{
		Errors:    make([]ValidationError, 0),
		Warnings:  make([]ValidationError, 0),
		RuleCount: spec.Len(),
	}
	if spec.Version != nil {
		result.Version = spec.Version.String()
	}

	for _, c := range Categories {
		seen := make(map[string]int)
		for i, rule := range spec.Rules(c) {
			v.validatePattern(c, i, rule, seen, result)
		}
	}

	for _, u := range spec.Unknown {
		v.add(result, ValidationError{
			Category: u.Category,
			Section:  u.Category.Section(),
			Index:    u.Index,
			Field:    u.Key,
			Message:  fmt.Sprintf("unknown key '%s' is ignored", u.Key),
			Severity: "warning",
		})
	}

	sort.SliceStable(result.Warnings, func(i, j int) bool {
		a, b := result.Warnings[i], result.Warnings[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Index < b.Index
	})
	return result
}

func (v *Validator) validatePattern(c Category, i int, rule RuleSpec, seen map[string]int, result *SpecValidationResult) {
	issue := func(field, severity, format string, args ...any) {
		v.add(result, ValidationError{
			Category: c,
			Section:  c.Section(),
			Index:    i,
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Severity: severity,
		})
	}

	pattern := rule.Pattern()
	if first, dup := seen[pattern]; dup {
		issue("regex", "warning", "duplicate of rule %d; this rule can never match", first)
	} else {
		seen[pattern] = i
	}

	if err := v.patterns.Validate(pattern); err != nil {
		reason, _ := regexsafe.ReasonOf(err)
		issue("regex", "error", "unsafe pattern (%s): %v", reason, err)
		return
	}

	re, err := v.engine.Compile(pattern)
	if err != nil {
		issue("regex", "error", "invalid regex syntax: %v", err)
		return
	}
	groups := re.NumSubexp()

	schema := schemaFor(c)
	for _, f := range schema.fields {
		src, explicit := rule.Templates[f.name]
		if !explicit {
			src = f.template
		}
		if src == "" {
			continue
		}
		for _, g := range CompileTemplate(src).Groups() {
			if g <= groups {
				continue
			}
			if explicit {
				issue(f.key, "warning", "references $%d but the pattern has %d capture groups", g, groups)
			} else if f.name == FieldFamily {
				issue(f.key, "warning", "pattern has no capture group and no %s; family is always the fallback", f.key)
			}
		}
	}
}

func (v *Validator) add(result *SpecValidationResult, e ValidationError) {
	if e.Severity == "warning" && v.strict {
		e.Severity = "error"
	}
	if e.Severity == "error" {
		result.Errors = append(result.Errors, e)
		return
	}
	result.Warnings = append(result.Warnings, e)
}

// NewValidationError summarises a failed audit.
func NewValidationError(errorCount, warningCount int) error {
	return WithErrorCode(
		fmt.Errorf("%w: validation failed: %d errors, %d warnings", ErrMalformedSpecification, errorCount, warningCount),
		errorCodeSpecMalformed,
	)
}
