// Package uaparser classifies User-Agent strings into browser, operating
// system and device descriptors using ordered regex rule lists.
//
// Rules are loaded from a YAML specification in the uap-core regexes.yaml
// layout, validated for linear-time safety and compiled once into an
// immutable RuleSet. A Parser evaluates the three categories independently;
// within a category the first matching rule wins.
package uaparser

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// CatalogFileName is the cached specification written by catalog sync.
const CatalogFileName = "regexes.yaml"

//go:embed data/regexes.yaml
var embeddedRegexesYAML []byte

var (
	defaultOnce sync.Once
	defaultSet  *RuleSet
	defaultErr  error
)

// EmbeddedSpecification returns a copy of the built-in specification bytes.
func EmbeddedSpecification() []byte {
	out := make([]byte, len(embeddedRegexesYAML))
	copy(out, embeddedRegexesYAML)
	return out
}

// Default returns the rule set compiled from the embedded specification
// with the default engine. It is compiled once per process.
func Default() (*RuleSet, error) {
	defaultOnce.Do(func() {
		defaultSet, defaultErr = LoadRuleSet(embeddedRegexesYAML, WithSource("embedded"))
	})
	return defaultSet, defaultErr
}

// LoadEmbedded compiles the embedded specification with opts.
func LoadEmbedded(opts ...CompileOption) (*RuleSet, error) {
	opts = append([]CompileOption{WithSource("embedded")}, opts...)
	return LoadRuleSet(embeddedRegexesYAML, opts...)
}

// LoadRuleSet parses and compiles a specification.
func LoadRuleSet(data []byte, opts ...CompileOption) (*RuleSet, error) {
	spec, err := ParseSpecification(data)
	if err != nil {
		return nil, err
	}
	return Compile(spec, opts...)
}

// LoadFile parses and compiles the specification at path.
func LoadFile(path string, opts ...CompileOption) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	opts = append([]CompileOption{WithSource(path)}, opts...)
	rs, err := LoadRuleSet(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rs, nil
}

// loadExternalCatalog loads the specification cached by catalog sync.
func loadExternalCatalog(cacheDir string, opts ...CompileOption) (*RuleSet, error) {
	if cacheDir == "" {
		return nil, NewStorageDisabledError()
	}
	cachedPath := filepath.Join(cacheDir, CatalogFileName)
	content, err := os.ReadFile(cachedPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	opts = append([]CompileOption{WithSource(cachedPath)}, opts...)
	rs, err := LoadRuleSet(content, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse cache: %w", err)
	}
	return rs, nil
}

// LoadCatalog resolves the active rule set: an explicit file wins, then the
// synced catalog in cacheDir, then the embedded specification.
func LoadCatalog(file, cacheDir string, opts ...CompileOption) (*RuleSet, error) {
	if file != "" {
		return LoadFile(file, opts...)
	}
	if cacheDir != "" {
		rs, err := loadExternalCatalog(cacheDir, opts...)
		if err == nil {
			return rs, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return LoadEmbedded(opts...)
}
