package tui

import (
	"context"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/dagbolade/echoguard/internal/viewmodel"
)

// Controller is what the console asks the core to do. SetFilter and
// SetSearch are called from Update and must not block; Refresh and Submit
// run from commands.
type Controller interface {
	SetFilter(f accesslog.Filter)
	SetSearch(term string)
	Refresh()
	Submit(appName, permission string) error
}

// Actions wires a Controller onto the core components.
type Actions struct {
	Ctx       context.Context
	Store     *viewmodel.Store
	Refresher viewmodel.Refresher
	Search    *viewmodel.Debouncer
	Submitter *viewmodel.SubmissionController
}

func (a *Actions) SetFilter(f accesslog.Filter) {
	a.Store.SetFilter(f)
}

func (a *Actions) SetSearch(term string) {
	if a.Search == nil {
		a.Store.SetSearch(term)
		return
	}
	a.Search.Push(term)
}

func (a *Actions) Refresh() {
	a.Refresher.RefreshNow()
}

func (a *Actions) Submit(appName, permission string) error {
	ctx := a.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return a.Submitter.Submit(ctx, appName, permission)
}
