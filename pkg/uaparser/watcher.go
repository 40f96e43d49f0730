package uaparser

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the delay between the last write to the rules file and
// the reload.
const DefaultDebounce = 100 * time.Millisecond

// RuleWatcher reloads a Parser when its rules file changes on disk. A file
// that fails to load leaves the active rule set in place.
type RuleWatcher struct {
	parser *Parser
	path   string
	opts   []CompileOption

	// watcher is the fsnotify file watcher
	watcher *fsnotify.Watcher

	debounceDelay time.Duration
	logger        zerolog.Logger

	// mu protects debounceTimer
	mu            sync.Mutex
	debounceTimer *time.Timer

	// onReload is called after every reload attempt (tests, metrics).
	onReload func(*RuleSet, error)
}

// WatcherOption configures a RuleWatcher.
type WatcherOption func(*RuleWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *RuleWatcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// WithCompileOptions sets the options used to compile reloaded files.
func WithCompileOptions(opts ...CompileOption) WatcherOption {
	return func(w *RuleWatcher) {
		w.opts = opts
	}
}

// OnReload registers fn to be called after each reload attempt.
func OnReload(fn func(*RuleSet, error)) WatcherOption {
	return func(w *RuleWatcher) {
		w.onReload = fn
	}
}

// NewRuleWatcher creates a watcher that reloads path into parser.
func NewRuleWatcher(parser *Parser, path string, logger zerolog.Logger, opts ...WatcherOption) (*RuleWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &RuleWatcher{
		parser:        parser,
		path:          path,
		watcher:       watcher,
		debounceDelay: DefaultDebounce,
		logger:        logger.With().Str("component", "uaparser.watcher").Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the rules file until ctx is canceled. Run it in its own
// goroutine.
func (w *RuleWatcher) Start(ctx context.Context) error {
	// watch the parent directory; editors replace files by rename
	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)

	if err := w.watcher.Add(dir); err != nil {
		w.logger.Error().
			Err(err).
			Str("dir", dir).
			Msg("Failed to watch rules directory")
		return err
	}

	w.logger.Info().
		Str("file", w.path).
		Dur("debounce", w.debounceDelay).
		Msg("Started watching rules file")

	defer func() {
		w.stopTimer()
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn().Err(err).Msg("Error closing watcher")
		}
		w.logger.Info().Msg("Stopped watching rules file")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Debug().
					Str("op", event.Op.String()).
					Str("file", event.Name).
					Msg("Detected rules file change")
				w.scheduleReload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

// scheduleReload coalesces bursts of events into one reload.
func (w *RuleWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, w.reload)
}

func (w *RuleWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

func (w *RuleWatcher) reload() {
	rs, err := LoadFile(w.path, w.opts...)
	if err == nil {
		err = w.parser.Reload(rs)
	} else {
		w.parser.metrics.ObserveReload(nil, err)
	}
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("code", ErrorCode(err)).
			Msg("Failed to reload rules; keeping active rule set")
	}
	if w.onReload != nil {
		w.onReload(rs, err)
	}
}

// Close stops the watcher and releases resources.
func (w *RuleWatcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}
