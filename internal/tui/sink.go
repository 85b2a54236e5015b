package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dagbolade/echoguard/internal/viewmodel"
)

type renderMsg struct{ view viewmodel.View }

type notifyMsg struct{ n viewmodel.Notification }

type busyMsg struct{ busy bool }

type resetFormMsg struct{}

type toastExpiredMsg struct{ id int }

// submitDoneMsg ends a submission started from the form.
type submitDoneMsg struct{ err error }

// Sink forwards core callbacks into the program's event loop, so all model
// state is touched from Update only.
type Sink struct {
	send func(tea.Msg)
}

func NewSink(p *tea.Program) *Sink {
	return &Sink{send: p.Send}
}

func (s *Sink) Render(v viewmodel.View)         { s.send(renderMsg{view: v}) }
func (s *Sink) Notify(n viewmodel.Notification) { s.send(notifyMsg{n: n}) }
func (s *Sink) SetBusy(busy bool)               { s.send(busyMsg{busy: busy}) }
func (s *Sink) Reset()                          { s.send(resetFormMsg{}) }

var (
	_ viewmodel.RenderSink    = (*Sink)(nil)
	_ viewmodel.Notifier      = (*Sink)(nil)
	_ viewmodel.BusyIndicator = (*Sink)(nil)
	_ viewmodel.Form          = (*Sink)(nil)
)
