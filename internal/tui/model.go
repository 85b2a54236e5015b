package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/dagbolade/echoguard/internal/viewmodel"
)

const ToastDuration = 4 * time.Second

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeForm
)

type toast struct {
	id    int
	level viewmodel.Level
	text  string
}

var filterKeys = map[string]accesslog.Filter{
	"a": accesslog.FilterAll,
	"s": accesslog.FilterSuspicious,
	"n": accesslog.FilterNormal,
}

type Model struct {
	ctrl   Controller
	styles Styles

	table  table.Model
	search textinput.Model
	app    textinput.Model
	perm   textinput.Model
	spin   spinner.Model

	mode      mode
	formFocus int
	filter    accesslog.Filter
	busy      bool
	loaded    bool
	view      viewmodel.View
	toast     *toast
	toastSeq  int
	width     int
	height    int
}

func New(ctrl Controller, q accesslog.Query) *Model {
	m := &Model{
		ctrl:   ctrl,
		styles: DefaultStyles(),
		search: textinput.New(),
		app:    textinput.New(),
		perm:   textinput.New(),
		spin:   spinner.New(),
		filter: q.Filter.Normalize(),
		width:  100,
		height: 30,
	}

	m.spin.Spinner = spinner.Dot

	m.search.Prompt = "/"
	m.search.Placeholder = "search apps or permissions"
	m.search.CharLimit = 128
	m.search.SetValue(q.Search)

	m.app.Prompt = "App:        "
	m.app.Placeholder = "e.g. Zoom"
	m.app.CharLimit = 128

	m.perm.Prompt = "Permission: "
	m.perm.Placeholder = strings.Join(accesslog.KnownPermissions, ", ")
	m.perm.CharLimit = 64

	for _, in := range []*textinput.Model{&m.search, &m.app, &m.perm} {
		in.Cursor.SetMode(cursor.CursorStatic)
	}

	m.table = table.New(table.WithFocused(true), table.WithHeight(15))
	m.table.SetColumns(columnsFor(m.width))

	return m
}

// Run blocks until the operator quits or ctx is done.
func Run(ctx context.Context, p *tea.Program) error {
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := msg.Height - 10
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		m.table.SetWidth(msg.Width)
		m.table.SetColumns(columnsFor(msg.Width))
		return m, nil

	case renderMsg:
		m.view = msg.view
		m.loaded = true
		m.filter = msg.view.Query.Filter.Normalize()
		m.table.SetRows(rowsFor(msg.view.Rows))
		return m, nil

	case notifyMsg:
		m.toastSeq++
		id := m.toastSeq
		m.toast = &toast{id: id, level: msg.n.Level, text: msg.n.Message}
		return m, tea.Tick(ToastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}
		return m, nil

	case busyMsg:
		wasBusy := m.busy
		m.busy = msg.busy
		if m.busy && !wasBusy {
			return m, m.spin.Tick
		}
		return m, nil

	case submitDoneMsg:
		m.busy = false
		var ve *accesslog.ValidationError
		if errors.As(msg.err, &ve) {
			return m.Update(notifyMsg{n: viewmodel.Notification{Level: viewmodel.LevelError, Message: viewmodel.MsgFillAllFields}})
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case resetFormMsg:
		m.app.Reset()
		m.perm.Reset()
		m.closeForm()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if f, ok := filterKeys[key]; ok {
		m.filter = f
		m.ctrl.SetFilter(f)
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "l":
		m.mode = modeForm
		m.formFocus = 0
		m.perm.Blur()
		return m, m.app.Focus()
	case "r":
		return m, m.do(m.ctrl.Refresh)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.search.Blur()
		if m.search.Value() == "" {
			return m, nil
		}
		m.search.SetValue("")
		m.ctrl.SetSearch("")
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		m.ctrl.SetSearch(strings.ToLower(after))
	}
	return m, cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		return m, m.toggleFormFocus()
	case "enter":
		if m.busy {
			return m, nil
		}
		// Cleared by submitDoneMsg.
		m.busy = true
		return m, tea.Batch(m.spin.Tick, m.submit(m.app.Value(), m.perm.Value()))
	}

	var cmd tea.Cmd
	if m.formFocus == 0 {
		m.app, cmd = m.app.Update(msg)
	} else {
		m.perm, cmd = m.perm.Update(msg)
	}
	return m, cmd
}

func (m *Model) submit(appName, permission string) tea.Cmd {
	return func() tea.Msg {
		return submitDoneMsg{err: m.ctrl.Submit(appName, permission)}
	}
}

func (m *Model) toggleFormFocus() tea.Cmd {
	if m.formFocus == 0 {
		m.formFocus = 1
		m.app.Blur()
		return m.perm.Focus()
	}
	m.formFocus = 0
	m.perm.Blur()
	return m.app.Focus()
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.formFocus = 0
	m.app.Blur()
	m.perm.Blur()
}

// do runs fn off the event loop.
func (m *Model) do(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("EchoGuard"))
	b.WriteString("  ")
	b.WriteString(m.statsLine())
	b.WriteString("\n\n")

	b.WriteString(m.filterLine())
	b.WriteString("  ")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(m.styles.Empty.Render("Loading logs..."))
	case m.view.Empty != viewmodel.EmptyNone:
		b.WriteString(m.styles.Empty.Render(m.view.Empty.Message()))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.mode == modeForm {
		form := m.app.View() + "\n" + m.perm.View()
		if m.busy {
			form += "\n" + m.spin.View() + " Logging..."
		}
		b.WriteString(m.styles.Form.Render(form))
		b.WriteString("\n")
	}

	if m.toast != nil {
		style, ok := m.styles.Toast[string(m.toast.level)]
		if !ok {
			style = m.styles.Toast[string(viewmodel.LevelSuccess)]
		}
		b.WriteString(style.Render(m.toast.text))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render(m.helpLine()))
	return b.String()
}

func (m *Model) statsLine() string {
	agg := m.view.Aggregates
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Stat.Render(fmt.Sprintf("Total %d", agg.Total)),
		m.styles.Suspicious.Render(fmt.Sprintf("Suspicious %d", agg.Suspicious)),
		"  ",
		m.styles.Normal.Render(fmt.Sprintf("Normal %d", agg.Normal)),
	)
}

func (m *Model) filterLine() string {
	labels := []struct {
		filter accesslog.Filter
		text   string
	}{
		{accesslog.FilterAll, "[a] All"},
		{accesslog.FilterSuspicious, "[s] Suspicious"},
		{accesslog.FilterNormal, "[n] Normal"},
	}

	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		style := m.styles.FilterOff
		if l.filter == m.filter {
			style = m.styles.FilterOn
		}
		parts = append(parts, style.Render(l.text))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) helpLine() string {
	switch m.mode {
	case modeSearch:
		return "type to search • enter: done • esc: clear"
	case modeForm:
		return "tab: switch field • enter: log access • esc: cancel"
	default:
		return "a/s/n: filter • /: search • l: log access • r: refresh • q: quit"
	}
}

func columnsFor(width int) []table.Column {
	fixed := 20 + 16 + 14 + 11
	reason := width - fixed - 10
	if reason < 16 {
		reason = 16
	}
	return []table.Column{
		{Title: "Time", Width: 20},
		{Title: "App", Width: 16},
		{Title: "Permission", Width: 14},
		{Title: "Status", Width: 11},
		{Title: "Reason", Width: reason},
	}
}

func rowsFor(rows []viewmodel.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		status := r.Status
		if r.Suspicious {
			status = "! " + status
		}
		out = append(out, table.Row{r.Time, r.AppName, r.Permission, status, r.Reason})
	}
	return out
}
