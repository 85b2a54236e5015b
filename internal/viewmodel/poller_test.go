package viewmodel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/rs/zerolog"
)

type fetchResult struct {
	entries []accesslog.Entry
	err     error
}

type fetchCall struct {
	query accesslog.Query
	reply chan fetchResult
}

// gatedFetcher hands every call to the test, which decides when and how
// it completes.
type gatedFetcher struct {
	calls chan fetchCall
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan fetchCall, 8)}
}

func (f *gatedFetcher) Fetch(ctx context.Context, q accesslog.Query) ([]accesslog.Entry, error) {
	call := fetchCall{query: q, reply: make(chan fetchResult, 1)}
	f.calls <- call
	select {
	case r := <-call.reply:
		return r.entries, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *gatedFetcher) next(t *testing.T) fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for fetch")
		return fetchCall{}
	}
}

type recordingSink struct {
	mu    sync.Mutex
	views []View
}

func (s *recordingSink) Render(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, v)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func (s *recordingSink) last() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[len(s.views)-1]
}

type staticFetcher struct {
	mu      sync.Mutex
	entries []accesslog.Entry
	err     error
	queries []accesslog.Query
}

func (f *staticFetcher) Fetch(ctx context.Context, q accesslog.Query) ([]accesslog.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.entries, f.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestPollerRefreshAppliesAndRenders(t *testing.T) {
	store := NewStore()
	fetcher := &staticFetcher{entries: sampleEntries()}
	sink := &recordingSink{}
	p := NewPoller(store, fetcher, sink, WithLogger(zerolog.Nop()), WithClock(fixedClock))

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if len(store.VisibleEntries()) != 3 {
		t.Errorf("expected 3 entries in store, got %d", len(store.VisibleEntries()))
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 render, got %d", sink.count())
	}

	v := sink.last()
	if v.Aggregates.Total != 3 || v.Aggregates.Suspicious != 2 {
		t.Errorf("unexpected aggregates: %+v", v.Aggregates)
	}
	if len(v.Rows) != 3 || v.Rows[2].Icon != FallbackIcon {
		t.Errorf("unknown permission row missing or wrong: %+v", v.Rows)
	}
	if v.Empty != EmptyNone {
		t.Errorf("expected EmptyNone, got %v", v.Empty)
	}
}

func TestPollerFailureLeavesStoreUntouched(t *testing.T) {
	store := NewStore()
	store.ApplyFetchResult(store.NewRequest(), sampleEntries())

	fetcher := &staticFetcher{err: &accesslog.TransportError{Op: "GET /data", Err: errors.New("connection refused")}}
	sink := &recordingSink{}
	p := NewPoller(store, fetcher, sink, WithLogger(zerolog.Nop()))

	err := p.Refresh(context.Background())
	var te *accesslog.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if len(store.VisibleEntries()) != 3 {
		t.Error("failed refresh changed the store")
	}
	if sink.count() != 0 {
		t.Error("failed refresh rendered")
	}
}

func TestPollerQueryChangeRefetches(t *testing.T) {
	store := NewStore()
	fetcher := newGatedFetcher()
	p := NewPoller(store, fetcher, &recordingSink{}, WithLogger(zerolog.Nop()))

	store.SetFilter(accesslog.FilterSuspicious)
	call := fetcher.next(t)
	if call.query.Filter != accesslog.FilterSuspicious {
		t.Errorf("expected suspicious filter, got %q", call.query.Filter)
	}
	call.reply <- fetchResult{entries: sampleEntries()[:1]}

	store.SetSearch("zoom")
	call = fetcher.next(t)
	if call.query != (accesslog.Query{Filter: accesslog.FilterSuspicious, Search: "zoom"}) {
		t.Errorf("unexpected query: %+v", call.query)
	}
	call.reply <- fetchResult{entries: sampleEntries()[:1]}

	p.Wait()
}

func TestPollerOutOfOrderResponses(t *testing.T) {
	store := NewStore()
	fetcher := newGatedFetcher()
	sink := &recordingSink{}
	p := NewPoller(store, fetcher, sink, WithLogger(zerolog.Nop()))

	store.SetFilter(accesslog.FilterSuspicious)
	first := fetcher.next(t)

	store.SetFilter(accesslog.FilterNormal)
	second := fetcher.next(t)

	normal := []accesslog.Entry{{ID: 9, AppName: "Chrome", Permission: "camera"}}
	second.reply <- fetchResult{entries: normal}
	waitFor(t, func() bool { return sink.count() == 1 })

	// The suspicious response arrives last but belongs to a stale query.
	first.reply <- fetchResult{entries: sampleEntries()}
	p.Wait()

	got := store.VisibleEntries()
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("stale response overwrote state: %+v", got)
	}
	if sink.count() != 1 {
		t.Errorf("expected exactly one render, got %d", sink.count())
	}
}

func TestPollerTickerDrivesRefresh(t *testing.T) {
	store := NewStore()
	fetcher := newGatedFetcher()
	tick := make(chan time.Time)
	stopped := make(chan struct{})

	p := NewPoller(store, fetcher, &recordingSink{},
		WithLogger(zerolog.Nop()),
		WithTicker(func(d time.Duration) (<-chan time.Time, func()) {
			if d != 5*time.Second {
				t.Errorf("expected default interval, got %v", d)
			}
			return tick, func() { close(stopped) }
		}),
	)

	if err := p.Start(context.Background(), 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := p.Start(context.Background(), 0); err == nil {
		t.Error("expected second start to fail")
	}

	fetcher.next(t).reply <- fetchResult{entries: sampleEntries()}

	for i := 0; i < 3; i++ {
		tick <- fixedClock()
		fetcher.next(t).reply <- fetchResult{entries: sampleEntries()}
	}

	p.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker was not stopped")
	}

	if len(store.VisibleEntries()) != 3 {
		t.Errorf("expected entries after ticks, got %d", len(store.VisibleEntries()))
	}
}

func TestPollerStopCancelsInflight(t *testing.T) {
	store := NewStore()
	fetcher := newGatedFetcher()
	p := NewPoller(store, fetcher, &recordingSink{},
		WithLogger(zerolog.Nop()),
		WithTicker(func(time.Duration) (<-chan time.Time, func()) { return nil, func() {} }),
	)

	if err := p.Start(context.Background(), time.Second); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	fetcher.next(t)

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	if len(store.VisibleEntries()) != 0 {
		t.Error("cancelled refresh applied entries")
	}
}

func TestPollerStopWhileQueryChanges(t *testing.T) {
	for i := 0; i < 200; i++ {
		store := NewStore()
		p := NewPoller(store, &staticFetcher{}, &recordingSink{},
			WithLogger(zerolog.Nop()),
			WithTicker(func(time.Duration) (<-chan time.Time, func()) { return nil, func() {} }),
		)
		if err := p.Start(context.Background(), time.Second); err != nil {
			t.Fatalf("start failed: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.SetSearch("x")
			}
		}()
		go func() {
			defer wg.Done()
			p.Stop()
		}()
		wg.Wait()

		p.Stop()
		p.Wait()
	}
}

func TestPollerRefreshNowDroppedWhileStopping(t *testing.T) {
	store := NewStore()
	fetcher := newGatedFetcher()
	p := NewPoller(store, fetcher, &recordingSink{},
		WithLogger(zerolog.Nop()),
		WithTicker(func(time.Duration) (<-chan time.Time, func()) { return nil, func() {} }),
	)

	if err := p.Start(context.Background(), time.Second); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	fetcher.next(t)

	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()

	p.RefreshNow()

	p.mu.Lock()
	inflight := p.inflight
	p.mu.Unlock()
	if inflight != 1 {
		t.Errorf("expected refresh to be dropped while stopping, inflight=%d", inflight)
	}

	p.mu.Lock()
	p.stopping = false
	p.mu.Unlock()
	p.Stop()

	if err := p.Start(context.Background(), time.Second); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	fetcher.next(t).reply <- fetchResult{entries: []accesslog.Entry{{ID: 1}}}
	p.Wait()
	p.Stop()

	if len(store.VisibleEntries()) != 1 {
		t.Errorf("expected refresh after restart to apply, got %d entries", len(store.VisibleEntries()))
	}
}

func TestPollerRequestTimeout(t *testing.T) {
	store := NewStore()
	fetcher := newGatedFetcher()
	p := NewPoller(store, fetcher, nil, WithLogger(zerolog.Nop()), WithRequestTimeout(50*time.Millisecond))

	errCh := make(chan error, 1)
	go func() { errCh <- p.Refresh(context.Background()) }()
	fetcher.next(t)

	select {
	case err := <-errCh:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not time out")
	}
}
