package uaparser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCaseBound is the per-case wall-time bound of a conformance run.
const DefaultCaseBound = 500 * time.Millisecond

// FixtureCase is one expected classification from a test_cases file.
// Missing and null fields mean absent; so does "".
type FixtureCase struct {
	UserAgentString string `yaml:"user_agent_string"`
	JSUA            string `yaml:"js_ua,omitempty"`
	Family          Field  `yaml:"family"`
	Major           Field  `yaml:"major"`
	Minor           Field  `yaml:"minor"`
	Patch           Field  `yaml:"patch"`
	PatchMinor      Field  `yaml:"patch_minor"`
	Brand           Field  `yaml:"brand"`
	Model           Field  `yaml:"model"`
}

func (fc FixtureCase) expected(name FieldName) Field {
	var f Field
	switch name {
	case FieldFamily:
		f = fc.Family
	case FieldMajor:
		f = fc.Major
	case FieldMinor:
		f = fc.Minor
	case FieldPatch:
		f = fc.Patch
	case FieldPatchMinor:
		f = fc.PatchMinor
	case FieldBrand:
		f = fc.Brand
	case FieldModel:
		f = fc.Model
	}
	if v, ok := f.Value(); ok && v == "" {
		return Absent
	}
	return f
}

// FixtureSet is a decoded fixture file for one category.
type FixtureSet struct {
	Category Category
	Path     string
	Cases    []FixtureCase
}

type fixtureFile struct {
	TestCases []FixtureCase `yaml:"test_cases"`
}

// ParseFixtures decodes fixture YAML for category c.
func ParseFixtures(c Category, data []byte) (*FixtureSet, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, tc := range f.TestCases {
		if tc.UserAgentString == "" && tc.JSUA == "" && !tc.Family.IsSet() {
			return nil, fmt.Errorf("parse fixtures: case %d is empty", i)
		}
	}
	return &FixtureSet{Category: c, Path: "inline", Cases: f.TestCases}, nil
}

// LoadFixtures reads a fixture file for category c.
func LoadFixtures(c Category, path string) (*FixtureSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	set, err := ParseFixtures(c, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set.Path = path
	return set, nil
}

// FieldMismatch is a single differing field.
type FieldMismatch struct {
	Field    FieldName `json:"field"`
	Expected Field     `json:"expected"`
	Actual   Field     `json:"actual"`
}

// CaseResult is the outcome of one fixture case.
type CaseResult struct {
	Category   Category        `json:"-"`
	Index      int             `json:"index"`
	Input      string          `json:"input"`
	Skipped    bool            `json:"skipped,omitempty"`
	Passed     bool            `json:"passed"`
	Mismatches []FieldMismatch `json:"mismatches,omitempty"`
	Rule       int             `json:"rule"`
	Duration   time.Duration   `json:"duration"`
	OverBound  bool            `json:"over_bound,omitempty"`
	Err        string          `json:"error,omitempty"`
}

// ConformanceRunner runs fixtures through a Parser.
type ConformanceRunner struct {
	parser    *Parser
	caseBound time.Duration
}

// NewConformanceRunner creates a runner. A zero caseBound uses
// DefaultCaseBound.
func NewConformanceRunner(p *Parser, caseBound time.Duration) *ConformanceRunner {
	if caseBound <= 0 {
		caseBound = DefaultCaseBound
	}
	return &ConformanceRunner{parser: p, caseBound: caseBound}
}

// Run evaluates every case of set. Cases carrying js_ua are skipped for the
// browser category. A case that exceeds the bound fails even when its fields
// match.
func (r *ConformanceRunner) Run(ctx context.Context, set *FixtureSet) ([]CaseResult, error) {
	results := make([]CaseResult, 0, len(set.Cases))
	for i, tc := range set.Cases {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, r.runCase(ctx, set.Category, i, tc))
	}
	return results, nil
}

func (r *ConformanceRunner) runCase(ctx context.Context, c Category, i int, tc FixtureCase) CaseResult {
	res := CaseResult{Category: c, Index: i, Input: tc.UserAgentString, Rule: -1}
	if c == CategoryUserAgent && tc.JSUA != "" {
		res.Skipped = true
		res.Passed = true
		return res
	}

	start := time.Now()
	o, err := r.parser.classifyOne(ctx, c, tc.UserAgentString)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	res.Rule = o.rule

	for fi, f := range schemaFor(c).fields {
		want := tc.expected(f.name)
		got := o.values[fi]
		if f.name == FieldFamily && !want.IsSet() {
			// an unspecified family is the fallback
			want = f.fallback
		}
		if want != got {
			res.Mismatches = append(res.Mismatches, FieldMismatch{Field: f.name, Expected: want, Actual: got})
		}
	}
	res.OverBound = res.Duration > r.caseBound
	res.Passed = len(res.Mismatches) == 0 && !res.OverBound
	return res
}

// RunFiles loads and runs fixture files keyed by category.
func (r *ConformanceRunner) RunFiles(ctx context.Context, files map[Category]string) (map[Category][]CaseResult, error) {
	out := make(map[Category][]CaseResult, len(files))
	var errs []error
	for _, c := range Categories {
		path, ok := files[c]
		if !ok || path == "" {
			continue
		}
		set, err := LoadFixtures(c, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results, err := r.Run(ctx, set)
		if err != nil {
			return out, err
		}
		out[c] = results
	}
	return out, errors.Join(errs...)
}
