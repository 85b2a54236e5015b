package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

type Option func(*SQLiteStore)

// WithClock overrides the time source used for records without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}

	if err := store.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Log validates and appends rec, returning the entry as it was stored.
func (s *SQLiteStore) Log(ctx context.Context, rec Record) (accesslog.Entry, error) {
	rec.AppName = strings.TrimSpace(rec.AppName)
	rec.Permission = strings.TrimSpace(rec.Permission)
	if err := validateRecord(rec); err != nil {
		return accesslog.Entry{}, err
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC().Truncate(time.Second)

	id, err := s.insertEntry(ctx, rec, ts)
	if err != nil {
		return accesslog.Entry{}, err
	}

	reason := rec.Reason
	if reason == "" {
		reason = DefaultReason
	}

	return accesslog.Entry{
		ID:           id,
		Timestamp:    ts,
		AppName:      rec.AppName,
		Permission:   rec.Permission,
		IsSuspicious: rec.Suspicious,
		Reason:       reason,
	}, nil
}

// Query returns the newest entries matching q. Unknown filters select
// everything; the search term matches app name or permission, case-insensitively.
func (s *SQLiteStore) Query(ctx context.Context, q accesslog.Query, limit int) ([]accesslog.Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	stmt, args := buildSelect(q, limit)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CountRecent counts stored events for the exact app/permission pair at or
// after since.
func (s *SQLiteStore) CountRecent(ctx context.Context, appName, permission string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, queryCountRecent,
		appName, permission, since.UTC().Format(timestampLayout)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent entries: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initializeSchema() error {
	for _, stmt := range schemaStatements() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) insertEntry(ctx context.Context, rec Record, ts time.Time) (int64, error) {
	const maxRetries = 3
	var err error

	suspicious := 0
	if rec.Suspicious {
		suspicious = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		var res sql.Result
		res, err = s.db.ExecContext(ctx, queryInsertEntry,
			rec.AppName, rec.Permission, ts.Format(timestampLayout), suspicious, rec.Reason)
		if err == nil {
			return res.LastInsertId()
		}

		if isBusy(err) {
			time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
			continue
		}

		return 0, fmt.Errorf("insert entry: %w", err)
	}

	return 0, fmt.Errorf("insert entry after %d retries: %w", maxRetries, err)
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func buildSelect(q accesslog.Query, limit int) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	switch q.Filter.Normalize() {
	case accesslog.FilterSuspicious:
		conditions = append(conditions, "is_suspicious = 1")
	case accesslog.FilterNormal:
		conditions = append(conditions, "is_suspicious = 0")
	}

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		conditions = append(conditions, `(LOWER(app_name) LIKE ? ESCAPE '\' OR LOWER(permission) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	stmt := querySelectEntries
	if len(conditions) > 0 {
		stmt += "\n\t\tWHERE " + strings.Join(conditions, " AND ")
	}
	stmt += queryOrderLimit
	args = append(args, limit)

	return stmt, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
