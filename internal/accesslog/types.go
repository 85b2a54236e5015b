package accesslog

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

type Filter string

const (
	FilterAll        Filter = "all"
	FilterSuspicious Filter = "suspicious"
	FilterNormal     Filter = "normal"
)

// Normalize maps the empty filter to FilterAll. Unknown values are kept so
// backend-defined categories pass through untouched.
func (f Filter) Normalize() Filter {
	v := Filter(strings.TrimSpace(string(f)))
	if v == "" || strings.EqualFold(string(v), string(FilterAll)) {
		return FilterAll
	}
	return v
}

// Known permission categories. Any other value is still a valid Entry.
var KnownPermissions = []string{
	"camera",
	"microphone",
	"location",
	"storage",
	"contacts",
	"files",
	"notifications",
	"calendar",
}

// Entry is one access event as reported by the backend.
type Entry struct {
	ID           int64     `json:"id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	AppName      string    `json:"app_name"`
	Permission   string    `json:"permission"`
	IsSuspicious bool      `json:"is_suspicious"`
	Reason       string    `json:"reason"`
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	type wireEntry Entry
	var raw struct {
		wireEntry
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Entry(raw.wireEntry)
	e.Timestamp = ParseTimestamp(raw.Timestamp)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts ISO-8601 and the SQLite datetime layout. It returns
// the zero time when nothing matches.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Query is the (filter, search) pair a log fetch is scoped by.
type Query struct {
	Filter Filter
	Search string
}

// Values encodes the query for GET /data. The filter is omitted for "all"
// and the search term when empty.
func (q Query) Values() url.Values {
	v := url.Values{}
	if f := q.Filter.Normalize(); f != FilterAll {
		v.Set("filter", string(f))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

type FetchResponse struct {
	Success bool    `json:"success"`
	Logs    []Entry `json:"logs"`
	Error   string  `json:"error,omitempty"`
}

type SubmitRequest struct {
	AppName    string `json:"app_name"`
	Permission string `json:"permission"`
}

type SubmitResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	IsSuspicious bool   `json:"is_suspicious,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Error        string `json:"error,omitempty"`
}
