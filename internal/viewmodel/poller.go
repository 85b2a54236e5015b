package viewmodel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultInterval = 5 * time.Second

// Fetcher returns the backend's current log set for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q accesslog.Query) ([]accesslog.Entry, error)
}

// TickerFunc starts a recurring tick and returns its channel and a stop func.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type PollerOption func(*Poller)

func WithTicker(fn TickerFunc) PollerOption {
	return func(p *Poller) { p.newTicker = fn }
}

func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.projector.Now = now }
}

func WithSanitizer(fn TextSanitizer) PollerOption {
	return func(p *Poller) { p.projector.Sanitize = fn }
}

func WithLogger(logger zerolog.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

// WithRequestTimeout bounds each fetch. Zero leaves it to the Fetcher.
func WithRequestTimeout(d time.Duration) PollerOption {
	return func(p *Poller) { p.timeout = d }
}

// Poller keeps the Store fresh. Refreshes may overlap; the Store's request
// guard decides which result wins.
type Poller struct {
	store     *Store
	fetcher   Fetcher
	sink      RenderSink
	projector Projector
	logger    zerolog.Logger
	newTicker TickerFunc
	timeout   time.Duration

	mu       sync.Mutex
	idle     *sync.Cond
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	stopping bool
	inflight int
	loop     sync.WaitGroup
	renderMu sync.Mutex
}

func NewPoller(store *Store, fetcher Fetcher, sink RenderSink, opts ...PollerOption) *Poller {
	if sink == nil {
		sink = nopSink{}
	}

	p := &Poller{
		store:     store,
		fetcher:   fetcher,
		sink:      sink,
		logger:    log.Logger,
		newTicker: realTicker,
		ctx:       context.Background(),
	}
	p.idle = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	store.OnQueryChange(p.RefreshNow)
	return p
}

// Start refreshes once right away and then every interval until Stop is
// called or ctx is done.
func (p *Poller) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("poller already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.ctx, p.cancel, p.running = runCtx, cancel, true
	tick, stopTick := p.newTicker(interval)
	p.loop.Add(1)
	p.mu.Unlock()

	p.logger.Info().Dur("interval", interval).Msg("log poller started")

	p.RefreshNow()
	go p.run(runCtx, tick, stopTick)
	return nil
}

func (p *Poller) run(ctx context.Context, tick <-chan time.Time, stopTick func()) {
	defer p.loop.Done()
	defer stopTick()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			p.RefreshNow()
		}
	}
}

// Stop halts the ticker, cancels in-flight fetches and waits for them.
// Refreshes requested while Stop runs are dropped.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running || p.stopping {
		p.mu.Unlock()
		return
	}
	p.stopping = true
	p.cancel()
	p.mu.Unlock()

	p.loop.Wait()

	p.mu.Lock()
	for p.inflight > 0 {
		p.idle.Wait()
	}
	p.running, p.stopping = false, false
	p.ctx = context.Background()
	p.mu.Unlock()

	p.logger.Info().Msg("log poller stopped")
}

// RefreshNow issues one fetch in the background.
func (p *Poller) RefreshNow() {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return
	}
	ctx := p.ctx
	p.inflight++
	p.mu.Unlock()

	go func() {
		defer p.done()
		_ = p.Refresh(ctx)
	}()
}

func (p *Poller) done() {
	p.mu.Lock()
	p.inflight--
	if p.inflight == 0 {
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}

// Wait blocks until every refresh issued so far has finished.
func (p *Poller) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.inflight > 0 {
		p.idle.Wait()
	}
}

// Refresh performs one fetch for the current query and applies the result.
// Failures are reported to the diagnostic log only.
func (p *Poller) Refresh(ctx context.Context) error {
	req := p.store.NewRequest()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	entries, err := p.fetcher.Fetch(ctx, req.Query)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("filter", string(req.Query.Filter)).
			Str("search", req.Query.Search).
			Uint64("seq", req.Seq).
			Msg("log refresh failed")
		return err
	}

	if !p.store.ApplyFetchResult(req, entries) {
		p.logger.Debug().
			Str("filter", string(req.Query.Filter)).
			Str("search", req.Query.Search).
			Uint64("seq", req.Seq).
			Msg("discarded stale log refresh")
		return nil
	}

	p.render()
	return nil
}

func (p *Poller) render() {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()

	q, entries := p.store.Snapshot()
	p.sink.Render(p.projector.View(q, entries))
}
