package viewmodel

import (
	"strings"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
)

const FallbackIcon = "fas fa-key"

var permissionIcons = map[string]string{
	"camera":        "fas fa-camera",
	"microphone":    "fas fa-microphone",
	"location":      "fas fa-map-marker-alt",
	"storage":       "fas fa-hdd",
	"contacts":      "fas fa-address-book",
	"files":         "fas fa-folder",
	"notifications": "fas fa-bell",
	"calendar":      "fas fa-calendar",
}

// IconFor never fails: unknown permissions get FallbackIcon.
func IconFor(permission string) string {
	if icon, ok := permissionIcons[strings.ToLower(strings.TrimSpace(permission))]; ok {
		return icon
	}
	return FallbackIcon
}

// Status returns the display label and the style class for a verdict.
func Status(suspicious bool) (label, class string) {
	if suspicious {
		return "Suspicious", "suspicious"
	}
	return "Normal", "normal"
}

type Aggregates struct {
	Total      int `json:"total"`
	Suspicious int `json:"suspicious"`
	Normal     int `json:"normal"`
}

// Summarize counts entries from scratch; callers never patch the result.
func Summarize(entries []accesslog.Entry) Aggregates {
	agg := Aggregates{Total: len(entries)}
	for _, e := range entries {
		if e.IsSuspicious {
			agg.Suspicious++
		}
	}
	agg.Normal = agg.Total - agg.Suspicious
	return agg
}

type EmptyState int

const (
	EmptyNone EmptyState = iota
	EmptyNoLogs
	EmptyNoMatches
)

// EmptyStateFor tells "nothing logged yet" apart from "nothing matches the
// current search".
func EmptyStateFor(entries []accesslog.Entry, q accesslog.Query) EmptyState {
	switch {
	case len(entries) > 0:
		return EmptyNone
	case q.Search != "":
		return EmptyNoMatches
	default:
		return EmptyNoLogs
	}
}

func (s EmptyState) Message() string {
	switch s {
	case EmptyNoLogs:
		return "No logs found. Start logging access events!"
	case EmptyNoMatches:
		return "No logs found. Try a different search term."
	default:
		return ""
	}
}

// Row is one entry ready for a sink. Text fields are already sanitized.
type Row struct {
	Time        string
	AppName     string
	Permission  string
	Icon        string
	Status      string
	StatusClass string
	RowClass    string
	Reason      string
	Suspicious  bool
}

type View struct {
	Query      accesslog.Query
	Rows       []Row
	Aggregates Aggregates
	Empty      EmptyState
}

type Projector struct {
	Sanitize TextSanitizer
	Now      func() time.Time
}

func (p Projector) sanitize(s string) string {
	if p.Sanitize == nil {
		return Sanitize(s)
	}
	return p.Sanitize(s)
}

func (p Projector) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p Projector) Project(entries []accesslog.Entry) []Row {
	now := p.now()
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		label, class := Status(e.IsSuspicious)
		rows = append(rows, Row{
			Time:        FormatTimestamp(e.Timestamp, now),
			AppName:     p.sanitize(e.AppName),
			Permission:  p.sanitize(e.Permission),
			Icon:        IconFor(e.Permission),
			Status:      label,
			StatusClass: class,
			RowClass:    class + "-row",
			Reason:      p.sanitize(e.Reason),
			Suspicious:  e.IsSuspicious,
		})
	}
	return rows
}

// View builds the full sink payload for a set of entries.
func (p Projector) View(q accesslog.Query, entries []accesslog.Entry) View {
	return View{
		Query:      q,
		Rows:       p.Project(entries),
		Aggregates: Summarize(entries),
		Empty:      EmptyStateFor(entries, q),
	}
}
