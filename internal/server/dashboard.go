package server

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/dagbolade/echoguard/internal/viewmodel"
)

const dashboardRefreshSeconds = 5

var dashboardFilters = []struct {
	filter accesslog.Filter
	label  string
}{
	{accesslog.FilterAll, "All"},
	{accesslog.FilterSuspicious, "Suspicious"},
	{accesslog.FilterNormal, "Normal"},
}

// DashboardPage renders a snapshot of v. Every interpolated string is HTML
// escaped here, so row text must arrive unescaped.
func DashboardPage(v viewmodel.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<meta http-equiv="refresh" content="%d">
<title>EchoGuard</title>
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css">
</head>
<body>
<h1><i class="fas fa-shield-alt"></i> EchoGuard</h1>
`, dashboardRefreshSeconds); err != nil {
			return err
		}

		components := []templ.Component{
			statsPanel(v.Aggregates),
			filterBar(v.Query),
			logTable(v),
		}
		for _, c := range components {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

func statsPanel(agg viewmodel.Aggregates) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<section class="stats">
<div class="stat"><span id="totalLogs">%d</span> Total</div>
<div class="stat suspicious"><span id="suspiciousLogs">%d</span> Suspicious</div>
<div class="stat normal"><span id="normalLogs">%d</span> Normal</div>
</section>
`, agg.Total, agg.Suspicious, agg.Normal)
		return err
	})
}

func filterBar(q accesslog.Query) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="filters">`); err != nil {
			return err
		}

		current := q.Filter.Normalize()
		for _, f := range dashboardFilters {
			params := accesslog.Query{Filter: f.filter, Search: q.Search}.Values().Encode()
			href := "/"
			if params != "" {
				href += "?" + params
			}

			class := "filter-btn"
			if f.filter == current {
				class += " active"
			}
			if _, err := fmt.Fprintf(w, `<a class="%s" href="%s">%s</a>`,
				templ.EscapeString(class), templ.EscapeString(href), templ.EscapeString(f.label)); err != nil {
				return err
			}
		}

		hidden := ""
		if current != accesslog.FilterAll {
			hidden = fmt.Sprintf(`<input type="hidden" name="filter" value="%s">`, templ.EscapeString(string(current)))
		}
		_, err := fmt.Fprintf(w, `<form method="get" action="/">%s<input id="searchInput" type="search" name="search" value="%s" placeholder="Search apps or permissions"></form></nav>
`, hidden, templ.EscapeString(q.Search))
		return err
	})
}

func logTable(v viewmodel.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if v.Empty != viewmodel.EmptyNone {
			icon := "fas fa-inbox"
			if v.Empty == viewmodel.EmptyNoMatches {
				icon = "fas fa-search"
			}
			_, err := fmt.Fprintf(w, `<div class="empty-state"><i class="%s"></i><p>%s</p></div>
`, templ.EscapeString(icon), templ.EscapeString(v.Empty.Message()))
			return err
		}

		if _, err := io.WriteString(w, `<table id="logsTable">
<thead><tr><th>Time</th><th>App</th><th>Permission</th><th>Status</th><th>Reason</th></tr></thead>
<tbody>
`); err != nil {
			return err
		}

		for _, row := range v.Rows {
			if _, err := fmt.Fprintf(w,
				`<tr class="%s"><td>%s</td><td>%s</td><td><i class="%s"></i> %s</td><td><span class="status-badge %s">%s</span></td><td>%s</td></tr>
`,
				templ.EscapeString(row.RowClass), templ.EscapeString(row.Time), templ.EscapeString(row.AppName),
				templ.EscapeString(row.Icon), templ.EscapeString(row.Permission),
				templ.EscapeString(row.StatusClass), templ.EscapeString(row.Status), templ.EscapeString(row.Reason)); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, "</tbody>\n</table>\n")
		return err
	})
}
