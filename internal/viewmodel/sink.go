package viewmodel

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level
	Message string
}

// RenderSink receives the visible set and aggregates after every applied fetch.
type RenderSink interface {
	Render(v View)
}

// Notifier surfaces transient operator-facing messages.
type Notifier interface {
	Notify(n Notification)
}

// BusyIndicator shows that a submission is in progress.
type BusyIndicator interface {
	SetBusy(busy bool)
}

// Form is the submission input form.
type Form interface {
	Reset()
}

// Refresher triggers an out-of-band refresh; Poller implements it.
type Refresher interface {
	RefreshNow()
}

type RenderFunc func(View)

func (f RenderFunc) Render(v View) { f(v) }

type NotifyFunc func(Notification)

func (f NotifyFunc) Notify(n Notification) { f(n) }

type nopSink struct{}

func (nopSink) Render(View)         {}
func (nopSink) Notify(Notification) {}
func (nopSink) SetBusy(bool)        {}
func (nopSink) Reset()              {}
func (nopSink) RefreshNow()         {}
