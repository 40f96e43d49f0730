package bind

import (
	"github.com/spf13/cobra"

	"github.com/vulntor/uaparser/pkg/uaparser"
)

// SyncOptions holds configuration options for the rules sync command.
type SyncOptions struct {
	FilePath string
	URL      string
	CacheDir string
	Force    bool
}

// BindSyncOptions extracts and validates rules sync flags.
//
// Flags read:
//   - --file: Load the catalog from a local file
//   - --url: Download the catalog from a remote URL
//   - --cache-dir: Override the catalog cache directory
//   - --force: Replace a cached catalog with a newer version
//
// Exactly one of --file and --url must be set.
func BindSyncOptions(cmd *cobra.Command) (SyncOptions, error) {
	filePath, _ := cmd.Flags().GetString("file")
	url, _ := cmd.Flags().GetString("url")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	force, _ := cmd.Flags().GetBool("force")

	opts := SyncOptions{
		FilePath: filePath,
		URL:      url,
		CacheDir: cacheDir,
		Force:    force,
	}

	if filePath == "" && url == "" {
		return opts, uaparser.NewSourceRequiredError()
	}

	if filePath != "" && url != "" {
		return opts, uaparser.NewSourceConflictError()
	}

	return opts, nil
}
