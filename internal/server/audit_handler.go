package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dagbolade/echoguard/internal/accesslog"
	"github.com/dagbolade/echoguard/internal/audit"
	"github.com/dagbolade/echoguard/internal/metrics"
	"github.com/dagbolade/echoguard/internal/policy"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	msgLogged          = "Access logged successfully"
	msgFieldsRequired  = "App name and permission are required"
	msgInvalidBody     = "Invalid request body"
	msgLogFailed       = "Failed to log access"
	msgRetrieveFailed  = "Failed to retrieve logs"
	maxRequestBodySize = "16K"
)

// Broadcaster is told about every stored entry.
type Broadcaster interface {
	BroadcastLogCreated(entry accesslog.Entry)
}

type AuditHandler struct {
	store      audit.Store
	classifier policy.Classifier
	notify     Broadcaster
	limit      int
}

func NewAuditHandler(store audit.Store, classifier policy.Classifier, notify Broadcaster, limit int) *AuditHandler {
	if limit <= 0 {
		limit = audit.DefaultLimit
	}
	return &AuditHandler{
		store:      store,
		classifier: classifier,
		notify:     notify,
		limit:      limit,
	}
}

// LogAccess handles POST /log.
func (h *AuditHandler) LogAccess(c echo.Context) error {
	var req accesslog.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, accesslog.SubmitResponse{Error: msgInvalidBody})
	}

	appName := strings.TrimSpace(req.AppName)
	permission := strings.TrimSpace(req.Permission)
	if appName == "" || permission == "" {
		return c.JSON(http.StatusBadRequest, accesslog.SubmitResponse{Error: msgFieldsRequired})
	}

	ctx := c.Request().Context()
	logger := log.With().Str("request_id", requestID(c)).Str("app_name", appName).Str("permission", permission).Logger()

	verdict, err := h.classifier.Classify(ctx, appName, permission)
	if err != nil {
		logger.Error().Err(err).Msg("failed to classify access")
		return c.JSON(http.StatusInternalServerError, accesslog.SubmitResponse{Error: msgLogFailed})
	}

	entry, err := h.store.Log(ctx, audit.Record{
		AppName:    appName,
		Permission: permission,
		Suspicious: verdict.Suspicious,
		Reason:     verdict.Reason,
	})
	if err != nil {
		var ve *accesslog.ValidationError
		var tl *audit.FieldTooLongError
		if errors.As(err, &ve) || errors.As(err, &tl) {
			return c.JSON(http.StatusBadRequest, accesslog.SubmitResponse{Error: err.Error()})
		}
		logger.Error().Err(err).Msg("failed to store access")
		return c.JSON(http.StatusInternalServerError, accesslog.SubmitResponse{Error: msgLogFailed})
	}

	metrics.AccessEventsTotal.WithLabelValues(metrics.Verdict(entry.IsSuspicious)).Inc()
	if entry.IsSuspicious {
		logger.Warn().Str("reason", entry.Reason).Int64("id", entry.ID).Msg("suspicious access logged")
	} else {
		logger.Debug().Int64("id", entry.ID).Msg("access logged")
	}

	if h.notify != nil {
		h.notify.BroadcastLogCreated(entry)
	}

	return c.JSON(http.StatusOK, accesslog.SubmitResponse{
		Success:      true,
		Message:      msgLogged,
		IsSuspicious: entry.IsSuspicious,
		Reason:       entry.Reason,
	})
}

// GetData handles GET /data.
func (h *AuditHandler) GetData(c echo.Context) error {
	start := time.Now()
	q := storeQuery(parseQuery(c.QueryParams()))

	entries, err := h.store.Query(c.Request().Context(), q, h.limit)
	metrics.DataQueryDuration.WithLabelValues(string(q.Filter)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DataQueriesTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("request_id", requestID(c)).Str("remote_addr", c.RealIP()).Msg("failed to retrieve logs")
		return c.JSON(http.StatusInternalServerError, accesslog.FetchResponse{Error: msgRetrieveFailed})
	}

	metrics.DataQueriesTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, accesslog.FetchResponse{
		Success: true,
		Logs:    entries,
	})
}

// parseQuery reads filter and search. Unknown filters fall back to all.
func parseQuery(values url.Values) accesslog.Query {
	filter := accesslog.Filter(strings.ToLower(values.Get("filter"))).Normalize()
	switch filter {
	case accesslog.FilterSuspicious, accesslog.FilterNormal:
	default:
		filter = accesslog.FilterAll
	}
	return accesslog.Query{Filter: filter, Search: strings.TrimSpace(values.Get("search"))}
}

// storeQuery lower-cases the search term the way the store matches it.
func storeQuery(q accesslog.Query) accesslog.Query {
	q.Search = strings.ToLower(q.Search)
	return q
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}
