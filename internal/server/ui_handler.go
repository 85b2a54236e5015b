package server

import (
	"net/http"

	"github.com/dagbolade/echoguard/internal/audit"
	"github.com/dagbolade/echoguard/internal/viewmodel"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type UIHandler struct {
	store     audit.Store
	limit     int
	projector viewmodel.Projector
}

func NewUIHandler(store audit.Store, limit int) *UIHandler {
	return &UIHandler{
		store:     store,
		limit:     limit,
		// DashboardPage escapes; the projector only strips control characters.
		projector: viewmodel.Projector{Sanitize: viewmodel.SanitizeTerminal},
	}
}

// ServeDashboard renders the current log set as HTML.
func (h *UIHandler) ServeDashboard(c echo.Context) error {
	q := parseQuery(c.QueryParams())

	entries, err := h.store.Query(c.Request().Context(), storeQuery(q), h.limit)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID(c)).Msg("failed to load dashboard")
		return c.String(http.StatusInternalServerError, msgRetrieveFailed)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return DashboardPage(h.projector.View(q, entries)).Render(c.Request().Context(), c.Response())
}
