// Package textsink renders log views and notifications as plain text.
package textsink

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/dagbolade/echoguard/internal/viewmodel"
)

// Sink writes every render as an aligned table. It is safe for concurrent use.
type Sink struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// New writes views to out and notifications to errOut.
func New(out, errOut io.Writer) *Sink {
	return &Sink{out: out, err: errOut}
}

func (s *Sink) Render(v viewmodel.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agg := v.Aggregates
	fmt.Fprintf(s.out, "Total: %d  Suspicious: %d  Normal: %d\n", agg.Total, agg.Suspicious, agg.Normal)

	if v.Empty != viewmodel.EmptyNone {
		fmt.Fprintln(s.out, v.Empty.Message())
		return
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tAPP\tPERMISSION\tSTATUS\tREASON")
	for _, r := range v.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Time, r.AppName, r.Permission, strings.ToUpper(r.Status), r.Reason)
	}
	tw.Flush()
}

func (s *Sink) Notify(n viewmodel.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.err, "[%s] %s\n", n.Level, n.Message)
}

var (
	_ viewmodel.RenderSink = (*Sink)(nil)
	_ viewmodel.Notifier   = (*Sink)(nil)
)
