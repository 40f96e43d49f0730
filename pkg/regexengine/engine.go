// Package regexengine abstracts the linear-time regular expression engines a
// rule set can be compiled with.
//
// Both engines implement the RE2 dialect: matching time is linear in the input
// length and neither supports lookaround or backreferences. Patterns are
// expected to have passed regexsafe.Validate before they reach Compile.
package regexengine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	re2 "github.com/wasilibs/go-re2"
)

// Engine names accepted by Lookup.
const (
	NameStdlib = "stdlib"
	NameRE2    = "re2"
)

// Pattern is a compiled expression. FindStringSubmatchIndex follows the
// regexp package contract: nil for no match, otherwise pairs of offsets where
// -1 marks a group that did not participate.
type Pattern interface {
	FindStringSubmatchIndex(s string) []int
	NumSubexp() int
	String() string
}

// Engine compiles patterns.
type Engine interface {
	Name() string
	Compile(expr string) (Pattern, error)
}

type stdlibEngine struct{}

func (stdlibEngine) Name() string { return NameStdlib }

func (stdlibEngine) Compile(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return re, nil
}

// re2Engine uses the WebAssembly build of the C++ RE2 library, which is
// faster than the Go implementation on long alternations.
type re2Engine struct{}

func (re2Engine) Name() string { return NameRE2 }

func (re2Engine) Compile(expr string) (Pattern, error) {
	re, err := re2.Compile(expr)
	if err != nil {
		return nil, err
	}
	return re, nil
}

var engines = map[string]Engine{
	NameStdlib: stdlibEngine{},
	NameRE2:    re2Engine{},
}

// Default returns the engine used when none is configured.
func Default() Engine {
	return engines[NameStdlib]
}

// Lookup resolves an engine by name. An empty name selects the default.
func Lookup(name string) (Engine, error) {
	if strings.TrimSpace(name) == "" {
		return Default(), nil
	}
	e, ok := engines[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown regex engine %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// Names lists the registered engine names in sorted order.
func Names() []string {
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
