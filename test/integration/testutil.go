package integration

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dagbolade/echoguard/internal/audit"
	"github.com/dagbolade/echoguard/internal/client"
	"github.com/dagbolade/echoguard/internal/policy"
	"github.com/dagbolade/echoguard/internal/server"
	"github.com/dagbolade/echoguard/internal/viewmodel"
	"github.com/stretchr/testify/require"
)

// TestEnvironment is a backend on a real SQLite file plus a client pointed at it.
type TestEnvironment struct {
	Server     *server.Server
	Engine     *policy.Engine
	AuditStore *audit.SQLiteStore
	HTTPServer *httptest.Server
	Client     *client.Client
	RulesFile  string
	DBPath     string
	t          *testing.T
}

// SetupTestEnvironment starts the backend. rules may be empty for the built-in set.
func SetupTestEnvironment(t *testing.T, rules string) *TestEnvironment {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "echoguard.db")

	store, err := audit.NewSQLiteStore(dbPath)
	require.NoError(t, err)

	rulesFile := ""
	if rules != "" {
		rulesFile = filepath.Join(tmpDir, "rules.yaml")
		require.NoError(t, os.WriteFile(rulesFile, []byte(rules), 0644))
	}

	engine, err := policy.NewEngine(store, rulesFile)
	require.NoError(t, err)

	srv := server.New(server.Config{QueryLimit: audit.DefaultLimit}, store, engine)
	httpServer := httptest.NewServer(srv.Handler())

	env := &TestEnvironment{
		Server:     srv,
		Engine:     engine,
		AuditStore: store,
		HTTPServer: httpServer,
		Client:     client.New(httpServer.URL, 5*time.Second),
		RulesFile:  rulesFile,
		DBPath:     dbPath,
		t:          t,
	}

	t.Cleanup(func() {
		srv.Hub().Shutdown()
		httpServer.Close()
		engine.Close()
		store.Close()
	})

	return env
}

// WriteRules replaces the rules file on disk.
func (e *TestEnvironment) WriteRules(rules string) {
	e.t.Helper()
	require.NotEmpty(e.t, e.RulesFile, "environment started without a rules file")
	require.NoError(e.t, os.WriteFile(e.RulesFile, []byte(rules), 0644))
}

// Submit records one event through the HTTP API and fails the test on transport errors.
func (e *TestEnvironment) Submit(app, perm string) {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ctrl := viewmodel.NewSubmissionController(e.Client, &RecordingSink{})
	require.NoError(e.t, ctrl.Submit(ctx, app, perm))
}

// RecordingSink collects everything the view-model core emits.
type RecordingSink struct {
	mu            sync.Mutex
	views         []viewmodel.View
	notifications []viewmodel.Notification
	busy          []bool
	resets        int
	rendered      chan struct{}
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{rendered: make(chan struct{}, 64)}
}

func (s *RecordingSink) Render(v viewmodel.View) {
	s.mu.Lock()
	s.views = append(s.views, v)
	s.mu.Unlock()

	if s.rendered != nil {
		select {
		case s.rendered <- struct{}{}:
		default:
		}
	}
}

func (s *RecordingSink) Notify(n viewmodel.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
}

func (s *RecordingSink) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = append(s.busy, busy)
}

func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

func (s *RecordingSink) LastView() (viewmodel.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.views) == 0 {
		return viewmodel.View{}, false
	}
	return s.views[len(s.views)-1], true
}

func (s *RecordingSink) Notifications() []viewmodel.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]viewmodel.Notification(nil), s.notifications...)
}

// WaitForView blocks until a rendered view satisfies cond.
func (s *RecordingSink) WaitForView(t *testing.T, timeout time.Duration, cond func(viewmodel.View) bool) viewmodel.View {
	t.Helper()
	deadline := time.After(timeout)

	for {
		if v, ok := s.LastView(); ok && cond(v) {
			return v
		}
		select {
		case <-s.rendered:
		case <-deadline:
			v, _ := s.LastView()
			t.Fatalf("timed out waiting for view, last: %+v", v)
		}
	}
}

// manualTicker drives poller ticks from the test.
type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) new(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() {}
}
