package uaparser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidator_EmbeddedSpecificationIsClean(t *testing.T) {
	res := NewValidator(true).ValidateBytes(EmbeddedSpecification())
	require.True(t, res.IsValid(), "%+v", res.Errors)
	require.Empty(t, res.Warnings)
	require.Equal(t, "1.0.0", res.Version)
	require.Positive(t, res.RuleCount)
}

func TestValidator_ReportsEveryProblem(t *testing.T) {
	doc := []byte(`
user_agent_parsers:
  - regex: '(Foo)/(\d+)'
    v3_replacement: '$7'
  - regex: '(Foo)/(\d+)'
  - regex: 'foo(?=bar)'
  - regex: 'NoGroup'
os_parsers:
  - regex: '(a+)+'
  - regex: '[unterminated'
device_parsers:
  - regex: '(Phone)'
    vendor: 'x'
`)
	res := NewValidator(false).ValidateBytes(doc)
	require.False(t, res.IsValid())
	require.Equal(t, 7, res.RuleCount)

	errs := map[string]string{}
	for _, e := range res.Errors {
		errs[e.Location()] = e.Message
	}
	require.Len(t, errs, 3)
	require.Contains(t, errs["user_agent_parsers[2]"], "lookahead")
	require.Contains(t, errs["os_parsers[0]"], "nested_quantifier")
	require.Contains(t, errs["os_parsers[1]"], "invalid_syntax")

	warns := map[string]string{}
	for _, w := range res.Warnings {
		warns[w.Location()+" "+w.Field] = w.Message
	}
	require.Contains(t, warns["user_agent_parsers[0] v3_replacement"], "$7")
	require.Contains(t, warns["user_agent_parsers[1] regex"], "duplicate of rule 0")
	require.Contains(t, warns["user_agent_parsers[3] family_replacement"], "no capture group")
	require.Contains(t, warns["device_parsers[0] vendor"], "unknown key")
	require.Len(t, res.Warnings, 4)
}

func TestValidator_StrictPromotesWarnings(t *testing.T) {
	doc := []byte("device_parsers:\n  - regex: 'NoGroup'\n")
	require.True(t, NewValidator(false).ValidateBytes(doc).IsValid())

	res := NewValidator(true).ValidateBytes(doc)
	require.False(t, res.IsValid())
	require.Equal(t, "error", res.Errors[0].Severity)
}

func TestValidator_ParseFailure(t *testing.T) {
	res := NewValidator(false).ValidateBytes([]byte("os_parsers:\n  - os_replacement: x\n"))
	require.False(t, res.IsValid())
	require.Equal(t, "os_parsers[0]", res.Errors[0].Location())

	res = NewValidator(false).ValidateBytes(nil)
	require.Equal(t, "specification", res.Errors[0].Location())
	require.Contains(t, res.Errors[0].Message, "empty specification")
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError(2, 1)
	require.ErrorIs(t, err, ErrMalformedSpecification)
	require.Equal(t, "SPEC_MALFORMED", ErrorCode(err))
	require.Equal(t, 3, ExitCode(err))
}
