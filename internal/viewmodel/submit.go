package viewmodel

import (
	"context"
	"errors"
	"strings"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	MsgFillAllFields  = "Please fill in all fields"
	MsgLogged         = "Access logged successfully"
	MsgSuspicious     = "Suspicious access detected!"
	MsgSubmitFailed   = "Failed to log access"
	MsgNetworkFailure = "Network error. Please try again."
)

// Submitter sends one access event and returns the backend payload.
// A nil error with Success false is a backend rejection.
type Submitter interface {
	Submit(ctx context.Context, req accesslog.SubmitRequest) (accesslog.SubmitResponse, error)
}

type SubmitOption func(*SubmissionController)

func WithBusyIndicator(b BusyIndicator) SubmitOption {
	return func(c *SubmissionController) { c.busy = b }
}

func WithRefresher(r Refresher) SubmitOption {
	return func(c *SubmissionController) { c.refresher = r }
}

func WithForm(f Form) SubmitOption {
	return func(c *SubmissionController) { c.form = f }
}

func WithSubmitLogger(logger zerolog.Logger) SubmitOption {
	return func(c *SubmissionController) { c.logger = logger }
}

func WithNotificationSanitizer(fn TextSanitizer) SubmitOption {
	return func(c *SubmissionController) { c.sanitize = fn }
}

type SubmissionController struct {
	submitter Submitter
	notifier  Notifier
	busy      BusyIndicator
	refresher Refresher
	form      Form
	sanitize  TextSanitizer
	logger    zerolog.Logger
}

func NewSubmissionController(submitter Submitter, notifier Notifier, opts ...SubmitOption) *SubmissionController {
	if notifier == nil {
		notifier = nopSink{}
	}

	c := &SubmissionController{
		submitter: submitter,
		notifier:  notifier,
		busy:      nopSink{},
		refresher: nopSink{},
		form:      nopSink{},
		sanitize:  Sanitize,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit validates and sends one access event. A ValidationError is returned
// before anything is sent; surfacing it is up to the caller. Every other
// outcome is reported through the Notifier.
func (c *SubmissionController) Submit(ctx context.Context, appName, permission string) error {
	req := accesslog.SubmitRequest{
		AppName:    strings.TrimSpace(appName),
		Permission: strings.TrimSpace(permission),
	}
	if req.AppName == "" {
		return &accesslog.ValidationError{Field: "app_name"}
	}
	if req.Permission == "" {
		return &accesslog.ValidationError{Field: "permission"}
	}

	c.busy.SetBusy(true)
	defer c.busy.SetBusy(false)

	resp, err := c.submitter.Submit(ctx, req)
	if err != nil {
		c.logger.Warn().Err(err).Str("app_name", req.AppName).Str("permission", req.Permission).Msg("submit access event failed")
		c.notifier.Notify(Notification{Level: LevelError, Message: MsgNetworkFailure})

		var te *accesslog.TransportError
		if !errors.As(err, &te) {
			err = &accesslog.TransportError{Op: "submit access event", Err: err}
		}
		return err
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = MsgSubmitFailed
		}
		c.notifier.Notify(Notification{Level: LevelError, Message: c.sanitize(msg)})
		return &accesslog.BackendError{Message: resp.Error}
	}

	if resp.IsSuspicious {
		c.notifier.Notify(Notification{
			Level:   LevelWarning,
			Message: strings.TrimSpace(MsgSuspicious + " " + c.sanitize(resp.Reason)),
		})
	} else {
		c.notifier.Notify(Notification{Level: LevelSuccess, Message: MsgLogged})
	}

	c.form.Reset()
	c.refresher.RefreshNow()
	return nil
}
