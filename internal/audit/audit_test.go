package audit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
)

func TestSQLiteStore(t *testing.T) {
	base := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	first, err := store.Log(ctx, Record{AppName: "Chrome", Permission: "notifications", Timestamp: base})
	if err != nil {
		t.Fatalf("failed to log normal: %v", err)
	}
	if first.ID == 0 || first.Reason != DefaultReason {
		t.Errorf("unexpected stored entry: %+v", first)
	}

	if _, err := store.Log(ctx, Record{
		AppName:    "Zoom",
		Permission: "camera",
		Suspicious: true,
		Reason:     "Untrusted app, Sensitive permission",
		Timestamp:  base.Add(time.Minute),
	}); err != nil {
		t.Fatalf("failed to log suspicious: %v", err)
	}

	entries, err := store.Query(ctx, accesslog.Query{}, 0)
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Most recent first
	if entries[0].AppName != "Zoom" || !entries[0].IsSuspicious {
		t.Errorf("expected Zoom first, got %+v", entries[0])
	}
	if !entries[0].Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("timestamp not preserved: %v", entries[0].Timestamp)
	}
	if entries[1].Reason != DefaultReason {
		t.Errorf("expected default reason, got %q", entries[1].Reason)
	}
}

func TestQueryOrderingTieBreak(t *testing.T) {
	ts := time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC)
	store := setupTestStore(t, WithClock(func() time.Time { return ts }))
	defer store.Close()

	ctx := context.Background()
	for _, app := range []string{"One", "Two", "Three"} {
		if _, err := store.Log(ctx, Record{AppName: app, Permission: "files"}); err != nil {
			t.Fatalf("log %s: %v", app, err)
		}
	}

	entries, err := store.Query(ctx, accesslog.Query{}, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	got := []string{entries[0].AppName, entries[1].AppName, entries[2].AppName}
	if strings.Join(got, ",") != "Three,Two,One" {
		t.Errorf("expected newest id first on equal timestamps, got %v", got)
	}
}

func TestQueryFilterAndSearch(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	seed := []Record{
		{AppName: "Zoom", Permission: "camera", Suspicious: true, Reason: "Untrusted app"},
		{AppName: "Chrome", Permission: "notifications"},
		{AppName: "Gadget", Permission: "bluetooth", Suspicious: true, Reason: "Untrusted app"},
		{AppName: "100%_Sure", Permission: "files", Suspicious: true, Reason: "Untrusted app"},
	}
	for _, rec := range seed {
		if _, err := store.Log(ctx, rec); err != nil {
			t.Fatalf("seed %s: %v", rec.AppName, err)
		}
	}

	tests := []struct {
		name     string
		query    accesslog.Query
		expected int
	}{
		{"all", accesslog.Query{Filter: accesslog.FilterAll}, 4},
		{"suspicious", accesslog.Query{Filter: accesslog.FilterSuspicious}, 3},
		{"normal", accesslog.Query{Filter: accesslog.FilterNormal}, 1},
		{"unknown filter", accesslog.Query{Filter: "weird"}, 4},
		{"search app", accesslog.Query{Search: "ZOO"}, 1},
		{"search permission", accesslog.Query{Search: "cam"}, 1},
		{"search with filter", accesslog.Query{Filter: accesslog.FilterNormal, Search: "zoom"}, 0},
		{"percent literal", accesslog.Query{Search: "%"}, 1},
		{"underscore literal", accesslog.Query{Search: "_"}, 1},
		{"no match", accesslog.Query{Search: "nothing"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tt.query, 0)
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(entries) != tt.expected {
				t.Errorf("expected %d entries, got %d", tt.expected, len(entries))
			}
			if entries == nil {
				t.Error("expected non-nil slice")
			}
		})
	}
}

func TestQueryLimit(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := store.Log(ctx, Record{AppName: fmt.Sprintf("app-%d", i), Permission: "files"}); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	entries, err := store.Query(ctx, accesslog.Query{}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}

func TestCountRecent(t *testing.T) {
	now := time.Date(2024, 1, 15, 14, 10, 0, 0, time.UTC)
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	offsets := []time.Duration{-10 * time.Minute, -4 * time.Minute, -2 * time.Minute, -30 * time.Second}
	for _, off := range offsets {
		if _, err := store.Log(ctx, Record{AppName: "Zoom", Permission: "camera", Timestamp: now.Add(off)}); err != nil {
			t.Fatalf("log: %v", err)
		}
	}
	if _, err := store.Log(ctx, Record{AppName: "Zoom", Permission: "microphone", Timestamp: now}); err != nil {
		t.Fatalf("log: %v", err)
	}

	n, err := store.CountRecent(ctx, "Zoom", "camera", now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 recent events, got %d", n)
	}

	n, err = store.CountRecent(ctx, "zoom", "camera", now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("app name match should be exact, got %d", n)
	}
}

func TestImmutability(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Log(ctx, Record{AppName: "Zoom", Permission: "camera", Reason: "original"}); err != nil {
		t.Fatalf("failed to log: %v", err)
	}

	_, err := store.db.ExecContext(ctx, "UPDATE access_logs SET reason = 'modified' WHERE id = 1")
	if err == nil {
		t.Fatal("expected UPDATE to fail, but it succeeded")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Errorf("expected trigger error, got: %v", err)
	}

	_, err = store.db.ExecContext(ctx, "DELETE FROM access_logs WHERE id = 1")
	if err == nil {
		t.Fatal("expected DELETE to fail, but it succeeded")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Errorf("expected trigger error, got: %v", err)
	}

	entries, _ := store.Query(ctx, accesslog.Query{}, 0)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Reason != "original" {
		t.Errorf("expected reason 'original', got '%s'", entries[0].Reason)
	}
}

func TestConcurrentWrites(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	const numWrites = 20
	var wg sync.WaitGroup
	errs := make(chan error, numWrites)

	for i := 0; i < numWrites; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			time.Sleep(time.Duration(id) * time.Millisecond)
			_, err := store.Log(ctx, Record{AppName: "Concurrent", Permission: "files"})
			errs <- err
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent write failed: %v", err)
		}
	}

	entries, err := store.Query(ctx, accesslog.Query{}, 0)
	if err != nil {
		t.Fatalf("failed to get entries: %v", err)
	}
	if len(entries) != numWrites {
		t.Errorf("expected %d entries, got %d", numWrites, len(entries))
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name      string
		rec       Record
		wantField string
		expectErr bool
	}{
		{"valid", Record{AppName: "Zoom", Permission: "camera"}, "", false},
		{"empty app", Record{AppName: "  ", Permission: "camera"}, "app_name", true},
		{"empty permission", Record{AppName: "Zoom", Permission: ""}, "permission", true},
		{"too long", Record{AppName: strings.Repeat("a", maxFieldLength+1), Permission: "camera"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRecord(tt.rec)
			if (err != nil) != tt.expectErr {
				t.Fatalf("expected error: %v, got: %v", tt.expectErr, err)
			}
			if tt.wantField == "" {
				return
			}
			var ve *accesslog.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.wantField {
				t.Errorf("expected validation error on %s, got %v", tt.wantField, err)
			}
		})
	}
}

func TestLogTrimsFields(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	entry, err := store.Log(context.Background(), Record{AppName: "  Zoom ", Permission: " camera\n"})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if entry.AppName != "Zoom" || entry.Permission != "camera" {
		t.Errorf("fields not trimmed: %+v", entry)
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("unexpected escape: %s", got)
	}
}

func setupTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath, opts...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}
