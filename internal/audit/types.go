package audit

import (
	"context"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
)

// DefaultReason is reported for rows stored without a reason.
const DefaultReason = "Normal access"

// Record is one classified access event ready to be persisted.
type Record struct {
	AppName    string
	Permission string
	Suspicious bool
	Reason     string
	// Timestamp defaults to the store clock when zero.
	Timestamp time.Time
}

type Store interface {
	Log(ctx context.Context, rec Record) (accesslog.Entry, error)
	Query(ctx context.Context, q accesslog.Query, limit int) ([]accesslog.Entry, error)
	CountRecent(ctx context.Context, appName, permission string, since time.Time) (int, error)
	Close() error
}
