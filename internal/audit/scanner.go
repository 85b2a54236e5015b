package audit

import (
	"database/sql"
	"fmt"

	"github.com/dagbolade/echoguard/internal/accesslog"
)

func scanEntries(rows *sql.Rows) ([]accesslog.Entry, error) {
	entries := []accesslog.Entry{}

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}

func scanEntry(rows *sql.Rows) (accesslog.Entry, error) {
	var (
		e          accesslog.Entry
		timestamp  string
		suspicious int
		reason     sql.NullString
	)

	if err := rows.Scan(&e.ID, &e.AppName, &e.Permission, &timestamp, &suspicious, &reason); err != nil {
		return accesslog.Entry{}, fmt.Errorf("scan row: %w", err)
	}

	// Rows written by other tools may carry odd timestamps; they surface as
	// the zero time rather than failing the whole query.
	e.Timestamp = accesslog.ParseTimestamp(timestamp)
	e.IsSuspicious = suspicious != 0
	e.Reason = reason.String
	if e.Reason == "" {
		e.Reason = DefaultReason
	}

	return e, nil
}
