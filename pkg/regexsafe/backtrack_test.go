package regexsafe

import (
	"strings"
	"testing"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/require"
)

// Patterns the validator rejects as ambiguous really do blow up in a
// backtracking engine, while their delimited rewrites stay fast.
func TestRejectedPatternsBacktrackCatastrophically(t *testing.T) {
	if testing.Short() {
		t.Skip("backtracking harness")
	}

	runOfA := strings.Repeat("a", 64) + "!"
	shortRunOfA := strings.Repeat("a", 40) + "!"
	cases := []struct {
		pattern string
		input   string
	}{
		{`^(a+)+$`, runOfA},
		{`^(a|aa)+$`, runOfA},
		{`^(\w*)+$`, runOfA},
		{`^(.*a){12}$`, shortRunOfA},
		{`^(a|aa){1,60}$`, shortRunOfA},
		{`^(\w+\s?){1,40}$`, shortRunOfA},
		{`^(a?){30}a{30}$`, shortRunOfA},
		{`^(a*;a*)+$`, "a;" + strings.Repeat("aaaa;", 30) + "!"},
		{`^(\d*\.\d*)+$`, "1." + strings.Repeat("111.", 30) + "!"},
	}
	for _, tc := range cases {
		t.Run(tc.pattern, func(t *testing.T) {
			require.True(t, IsUnsafe(Validate(tc.pattern)))

			re := regexp2.MustCompile(tc.pattern, regexp2.None)
			re.MatchTimeout = 200 * time.Millisecond
			_, err := re.MatchString(tc.input)
			require.Error(t, err, "expected match timeout")
		})
	}
}

func TestAcceptedPatternsStayLinearUnderBacktracking(t *testing.T) {
	input := strings.Repeat("a;", 2000) + "!"
	for _, p := range []string{`^(?:[^;]+;)*$`, `^(\w+\.)+com$`, `^(?:a+;)*$`} {
		t.Run(p, func(t *testing.T) {
			require.NoError(t, Validate(p))

			re := regexp2.MustCompile(p, regexp2.None)
			re.MatchTimeout = time.Second
			ok, err := re.MatchString(input)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}
