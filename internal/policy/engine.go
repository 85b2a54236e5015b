package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Engine struct {
	mu      sync.RWMutex
	rules   Rules
	counter RecentCounter
	watcher *FileWatcher
	file    string
	now     func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRules replaces the built-in defaults. A rules file given to NewEngine
// takes precedence.
func WithRules(rules Rules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// NewEngine builds a classifier backed by counter. When rulesFile is set it
// is loaded and watched for changes.
func NewEngine(counter RecentCounter, rulesFile string, opts ...Option) (*Engine, error) {
	engine := &Engine{
		rules:   DefaultRules(),
		counter: counter,
		file:    rulesFile,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}

	if rulesFile == "" {
		return engine, nil
	}

	if err := engine.Reload(); err != nil {
		return nil, fmt.Errorf("initial load: %w", err)
	}

	watcher, err := NewFileWatcher(rulesFile, engine.handleRulesChange)
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	engine.watcher = watcher

	return engine, nil
}

// Classify counts prior events for the pair and applies the current rules.
func (e *Engine) Classify(ctx context.Context, appName, permission string) (Verdict, error) {
	rules := e.Rules()

	recent := 0
	if e.counter != nil && rules.RepeatThreshold > 0 {
		n, err := e.counter.CountRecent(ctx, appName, permission, e.now().Add(-rules.RepeatWindow))
		if err != nil {
			return Verdict{}, fmt.Errorf("count recent access: %w", err)
		}
		recent = n
	}

	return evaluate(rules, appName, permission, recent), nil
}

func (e *Engine) Rules() Rules {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// Reload re-reads the rules file. On error the current rules stay active.
func (e *Engine) Reload() error {
	if e.file == "" {
		return nil
	}

	rules, err := LoadRules(e.file)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()

	log.Info().
		Str("file", e.file).
		Int("trusted_apps", len(rules.TrustedApps)).
		Int("sensitive_permissions", len(rules.SensitivePermissions)).
		Msg("rules loaded")
	return nil
}

func (e *Engine) Close() error {
	if e.watcher != nil {
		return e.watcher.Close()
	}
	return nil
}

func (e *Engine) handleRulesChange(path string) {
	log.Info().Str("path", path).Msg("rules change detected")

	if err := e.Reload(); err != nil {
		log.Error().Err(err).Msg("failed to reload rules, keeping previous set")
	}
}
