package bind

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/uaparser/pkg/config"
	"github.com/vulntor/uaparser/pkg/uaparser"
)

func syncCommand(t *testing.T, args map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "sync"}
	cmd.Flags().String("file", "", "")
	cmd.Flags().String("url", "", "")
	cmd.Flags().String("cache-dir", "", "")
	cmd.Flags().Bool("force", false, "")
	for k, v := range args {
		require.NoError(t, cmd.Flags().Set(k, v))
	}
	return cmd
}

func TestBindSyncOptions(t *testing.T) {
	opts, err := BindSyncOptions(syncCommand(t, map[string]string{
		"file":      "regexes.yaml",
		"cache-dir": "/tmp/cache",
		"force":     "true",
	}))
	require.NoError(t, err)
	require.Equal(t, SyncOptions{FilePath: "regexes.yaml", CacheDir: "/tmp/cache", Force: true}, opts)
}

func TestBindSyncOptions_SourceErrors(t *testing.T) {
	_, err := BindSyncOptions(syncCommand(t, nil))
	require.ErrorIs(t, err, uaparser.ErrSourceRequired)

	_, err = BindSyncOptions(syncCommand(t, map[string]string{"file": "a.yaml", "url": "https://example.test/r.yaml"}))
	require.ErrorIs(t, err, uaparser.ErrSourceConflict)
}

func TestCompileOptions_UnknownEngine(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules.Engine = "pcre"

	_, err := CompileOptions(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown regex engine")
}

func TestLoadRules_PrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user_agent_parsers:
  - regex: '(Haiku)/(\d+)'
`), 0o644))

	cfg := config.DefaultConfig()
	cfg.Rules.File = path

	rs, err := LoadRules(cfg)
	require.NoError(t, err)
	require.Equal(t, path, rs.Source())
	require.Equal(t, 1, rs.Total())
}

func TestLoadRules_Embedded(t *testing.T) {
	rs, err := LoadRules(config.DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, "embedded", rs.Source())
	require.Positive(t, rs.Total())
}

func TestNewParser(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules.Engine = "re2"

	reg := prometheus.NewRegistry()
	p, err := NewParser(cfg, ParserDeps{Logger: zerolog.Nop(), Registerer: reg})
	require.NoError(t, err)
	require.Equal(t, "re2", p.RuleSet().Engine())

	res := p.Parse("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/91.0.4472.124 Safari/537.36")
	require.Equal(t, "Chrome", res.UserAgent.Family)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
