package uaparser

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RuleHit identifies the rule that produced a category's descriptor.
// Index is -1 when no rule matched.
type RuleHit struct {
	Index   int    `json:"index"`
	Pattern string `json:"pattern,omitempty"`
}

// Matched reports whether a rule matched.
func (h RuleHit) Matched() bool { return h.Index >= 0 }

// Trace explains a parse.
type Trace struct {
	UserAgent RuleHit       `json:"ua"`
	OS        RuleHit       `json:"os"`
	Device    RuleHit       `json:"device"`
	Source    string        `json:"source"`
	Version   string        `json:"version,omitempty"`
	Truncated bool          `json:"truncated"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Hit returns the rule hit of category c.
func (t Trace) Hit(c Category) RuleHit {
	switch c {
	case CategoryOS:
		return t.OS
	case CategoryDevice:
		return t.Device
	}
	return t.UserAgent
}

// Parser classifies User-Agent strings against an atomically replaceable
// rule set. It is safe for concurrent use.
type Parser struct {
	rules          atomic.Pointer[RuleSet]
	budget         time.Duration
	parallel       bool
	maxInputLength int
	logger         zerolog.Logger
	telemetry      *TelemetryWriter
	metrics        *Metrics
}

// Option configures a Parser.
type Option func(*Parser)

// WithBudget bounds the wall time of every classification call: Parse,
// ParseContext, Explain and the single-category methods. Zero disables the
// bound.
func WithBudget(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.budget = d
		}
	}
}

// WithParallel evaluates the three categories concurrently.
func WithParallel(enabled bool) Option {
	return func(p *Parser) {
		p.parallel = enabled
	}
}

// WithMaxInputLength truncates inputs longer than n bytes before matching.
// Zero means unlimited.
func WithMaxInputLength(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxInputLength = n
		}
	}
}

// WithLogger sets the parser logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger.With().Str("component", "uaparser").Logger()
	}
}

// WithTelemetry records every parse to w.
func WithTelemetry(w *TelemetryWriter) Option {
	return func(p *Parser) {
		p.telemetry = w
	}
}

// WithMetrics records parse and reload metrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Parser) {
		p.metrics = m
	}
}

// New creates a Parser over rs. A nil rs yields a parser that classifies
// every input with the category fallbacks.
func New(rs *RuleSet, opts ...Option) *Parser {
	p := &Parser{
		logger: log.Logger.With().Str("component", "uaparser").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if rs == nil {
		rs = emptyRuleSet()
	}
	p.rules.Store(rs)
	p.metrics.setActive(rs)
	return p
}

// RuleSet returns the active snapshot.
func (p *Parser) RuleSet() *RuleSet {
	return p.rules.Load()
}

// Reload atomically replaces the active rule set. Parses already running
// finish against the snapshot they started with.
func (p *Parser) Reload(rs *RuleSet) error {
	if rs == nil {
		err := errors.New("reload: nil rule set")
		p.metrics.ObserveReload(nil, err)
		return err
	}
	prev := p.rules.Swap(rs)
	p.metrics.ObserveReload(rs, nil)
	p.logger.Info().
		Str("source", rs.Source()).
		Str("version", rs.VersionString()).
		Int("rules", rs.Total()).
		Int("previous_rules", prev.Total()).
		Msg("Rule set reloaded")
	return nil
}

// Parse classifies input. It never fails: when the budget elapses every
// field takes its fallback.
func (p *Parser) Parse(input string) Result {
	res, err := p.ParseContext(context.Background(), input)
	if err != nil {
		p.logger.Warn().Err(err).Int("input_bytes", len(input)).Msg("Parse fell back to defaults")
		return fallbackResult(input)
	}
	return res
}

// ParseContext classifies input under ctx and the configured budget. It
// returns ErrClassificationTimeout when either deadline elapses.
func (p *Parser) ParseContext(ctx context.Context, input string) (Result, error) {
	res, _, err := p.Explain(ctx, input)
	return res, err
}

// ParseUserAgent classifies only the browser under ctx and the configured
// budget.
func (p *Parser) ParseUserAgent(ctx context.Context, input string) (Browser, error) {
	o, err := p.classifyOne(ctx, CategoryUserAgent, input)
	if err != nil {
		return browserFrom(schemaFor(CategoryUserAgent).fallbacks()), err
	}
	return browserFrom(o.values), nil
}

// ParseOS classifies only the operating system.
func (p *Parser) ParseOS(ctx context.Context, input string) (OS, error) {
	o, err := p.classifyOne(ctx, CategoryOS, input)
	if err != nil {
		return osFrom(schemaFor(CategoryOS).fallbacks()), err
	}
	return osFrom(o.values), nil
}

// ParseDevice classifies only the device.
func (p *Parser) ParseDevice(ctx context.Context, input string) (Device, error) {
	o, err := p.classifyOne(ctx, CategoryDevice, input)
	if err != nil {
		return deviceFrom(schemaFor(CategoryDevice).fallbacks()), err
	}
	return deviceFrom(o.values), nil
}

func (p *Parser) classifyOne(ctx context.Context, c Category, input string) (outcome, error) {
	rs := p.rules.Load()
	input, _ = p.truncate(input)

	ctx, cancel := p.withBudget(ctx)
	defer cancel()

	o, err := await(ctx, func(ctx context.Context) (outcome, error) {
		return classify(ctx, input, rs.rules[c], schemaFor(c))
	})
	if err != nil {
		return o, timeoutError(err)
	}
	p.metrics.observeClassification(c, o.rule >= 0)
	return o, nil
}

// Explain classifies input and reports which rule matched per category.
func (p *Parser) Explain(ctx context.Context, input string) (Result, Trace, error) {
	start := time.Now()
	rs := p.rules.Load()

	matchInput, truncated := p.truncate(input)
	if truncated {
		p.metrics.observeTruncation()
	}

	ctx, cancel := p.withBudget(ctx)
	defer cancel()

	outcomes, err := await(ctx, func(ctx context.Context) ([numCategories]outcome, error) {
		return p.classifyAll(ctx, rs, matchInput)
	})
	elapsed := time.Since(start)
	if err != nil {
		err = timeoutError(err)
		label := "canceled"
		if errors.Is(err, ErrClassificationTimeout) {
			label = "timeout"
		}
		p.metrics.observeParse(label, elapsed)
		if werr := p.telemetry.WriteFailure(input, label, elapsed, err); werr != nil {
			p.logger.Debug().Err(werr).Msg("Telemetry write failed")
		}
		return fallbackResult(input), Trace{}, err
	}

	res := Result{
		String:    input,
		UserAgent: browserFrom(outcomes[CategoryUserAgent].values),
		OS:        osFrom(outcomes[CategoryOS].values),
		Device:    deviceFrom(outcomes[CategoryDevice].values),
	}
	trace := Trace{
		Source:    rs.Source(),
		Version:   rs.VersionString(),
		Truncated: truncated,
		Elapsed:   elapsed,
	}
	for _, c := range Categories {
		hit := RuleHit{Index: outcomes[c].rule}
		if r, ok := rs.Rule(c, hit.Index); ok {
			hit.Pattern = r.Pattern()
		}
		switch c {
		case CategoryUserAgent:
			trace.UserAgent = hit
		case CategoryOS:
			trace.OS = hit
		case CategoryDevice:
			trace.Device = hit
		}
		p.metrics.observeClassification(c, hit.Matched())
	}

	p.metrics.observeParse("ok", elapsed)
	if werr := p.telemetry.WriteResult(input, res, trace); werr != nil {
		p.logger.Debug().Err(werr).Msg("Telemetry write failed")
	}
	return res, trace, nil
}

func (p *Parser) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.budget <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.budget)
}

// await runs fn against ctx. When ctx can expire fn runs in its own
// goroutine so the caller returns at the deadline; classification stops at
// its next rule boundary.
func await[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	if ctx.Done() == nil {
		return fn(ctx)
	}

	type done struct {
		out T
		err error
	}
	ch := make(chan done, 1)
	go func() {
		out, err := fn(ctx)
		ch <- done{out: out, err: err}
	}()

	select {
	case d := <-ch:
		return d.out, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (p *Parser) classifyAll(ctx context.Context, rs *RuleSet, input string) ([numCategories]outcome, error) {
	var out [numCategories]outcome
	if !p.parallel {
		for _, c := range Categories {
			o, err := classify(ctx, input, rs.rules[c], schemaFor(c))
			if err != nil {
				return out, err
			}
			out[c] = o
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range Categories {
		g.Go(func() error {
			o, err := classify(gctx, input, rs.rules[c], schemaFor(c))
			if err != nil {
				return err
			}
			out[c] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func (p *Parser) truncate(input string) (string, bool) {
	if p.maxInputLength <= 0 || len(input) <= p.maxInputLength {
		return input, false
	}
	return truncateInput(input, p.maxInputLength), true
}

// truncateInput cuts s to at most n bytes without splitting a UTF-8
// sequence.
func truncateInput(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrClassificationTimeout, err)
	}
	return err
}

func fallbackResult(input string) Result {
	return Result{
		String:    input,
		UserAgent: browserFrom(schemaFor(CategoryUserAgent).fallbacks()),
		OS:        osFrom(schemaFor(CategoryOS).fallbacks()),
		Device:    deviceFrom(schemaFor(CategoryDevice).fallbacks()),
	}
}
