// Package catalogsync fetches a rule specification from a file or URL,
// validates it and stores it in the cache directory read by
// uaparser.LoadCatalog.
package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/gofrs/flock"

	"github.com/vulntor/uaparser/pkg/uaparser"
)

// ErrDowngrade indicates the fetched specification is older than the cached
// one.
var ErrDowngrade = errors.New("catalog downgrade")

const lockRetryDelay = 50 * time.Millisecond

// Source loads the raw specification bytes from a backing store.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// Store persists the specification bytes and reads back the stored copy.
type Store interface {
	Save(ctx context.Context, data []byte) error
	Current(ctx context.Context) ([]byte, error)
}

// Result describes a completed sync.
type Result struct {
	RuleSet  *uaparser.RuleSet
	Path     string
	Previous *semver.Version
}

// Service orchestrates catalog synchronization.
type Service struct {
	Source   Source
	Store    Store
	CacheDir string
	// Force replaces a cached specification with a newer version.
	Force bool
	// Parser, when set, receives the synced rule set.
	Parser         *uaparser.Parser
	CompileOptions []uaparser.CompileOption
}

// Sync fetches the specification from Source, compiles it to prove every
// rule is admissible, writes it using Store and reloads Parser.
func (s Service) Sync(ctx context.Context) (*Result, error) {
	if s.Source == nil {
		return nil, errors.New("catalog source is not configured")
	}
	if s.CacheDir == "" {
		return nil, uaparser.NewStorageDisabledError()
	}
	store := s.Store
	if store == nil {
		store = FileStore{Path: filepath.Join(s.CacheDir, uaparser.CatalogFileName)}
	}

	data, err := s.Source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	path := filepath.Join(s.CacheDir, uaparser.CatalogFileName)
	opts := append([]uaparser.CompileOption{uaparser.WithSource(path)}, s.CompileOptions...)
	rs, err := uaparser.LoadRuleSet(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	previous, err := cachedVersion(ctx, store)
	if err != nil {
		return nil, err
	}
	if !s.Force && isDowngrade(rs.Version(), previous) {
		return nil, fmt.Errorf("%w: cached %s is newer than %s", ErrDowngrade, previous, rs.VersionString())
	}

	if err := store.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("save catalog: %w", err)
	}

	if s.Parser != nil {
		if err := s.Parser.Reload(rs); err != nil {
			return nil, fmt.Errorf("reload catalog: %w", err)
		}
	}

	return &Result{RuleSet: rs, Path: path, Previous: previous}, nil
}

// cachedVersion returns the version of the stored specification, or nil
// when nothing usable is cached.
func cachedVersion(ctx context.Context, store Store) (*semver.Version, error) {
	current, err := store.Current(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached catalog: %w", err)
	}
	spec, err := uaparser.ParseSpecification(current)
	if err != nil {
		// a broken cache is replaced unconditionally
		return nil, nil
	}
	return spec.Version, nil
}

func isDowngrade(incoming, cached *semver.Version) bool {
	if incoming == nil || cached == nil {
		return false
	}
	return incoming.LessThan(cached)
}

// FileSource loads the specification from a local file path.
type FileSource struct {
	Path string
}

func (f FileSource) Load(_ context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.New("file path is empty")
	}
	return os.ReadFile(f.Path)
}

// HTTPSource downloads the specification from a URL using the provided
// http.Client (or a default one).
type HTTPSource struct {
	URL    string
	Client *http.Client
	// MaxBytes caps the response body. Zero uses DefaultMaxBytes.
	MaxBytes int64
}

// DefaultMaxBytes bounds a downloaded specification.
const DefaultMaxBytes = 16 << 20

func (h HTTPSource) Load(ctx context.Context) ([]byte, error) {
	if h.URL == "" {
		return nil, errors.New("url is empty")
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := h.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status from catalog source: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("catalog body exceeds %d bytes", limit)
	}
	return data, nil
}

// FileStore writes the specification to a path on disk. Writers hold an
// exclusive lock on a sibling .lock file and replace the target atomically,
// so a concurrent reader or watcher never sees a partial file.
type FileStore struct {
	Path string
}

func (f FileStore) Save(ctx context.Context, data []byte) error {
	if f.Path == "" {
		return errors.New("file store path is empty")
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	lock := flock.New(f.Path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock catalog: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock catalog: %s is held by another process", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close catalog: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod catalog: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace catalog: %w", err)
	}
	return nil
}

// Current reads the stored specification.
func (f FileStore) Current(_ context.Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.New("file store path is empty")
	}
	return os.ReadFile(f.Path)
}
