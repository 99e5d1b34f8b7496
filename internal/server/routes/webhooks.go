package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	zoomwebhook "github.com/telassist/callarchive/internal/webhooks/zoom"
)

// WebhookRoutes registers the webhook endpoint and the root placeholder.
type WebhookRoutes struct {
	zoom *zoomwebhook.Handler
}

// NewWebhookRoutes constructs webhook routes.
func NewWebhookRoutes(handler *zoomwebhook.Handler) *WebhookRoutes {
	return &WebhookRoutes{zoom: handler}
}

// RegisterRoutes registers webhook endpoints.
func (w *WebhookRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/", w.handleRoot)
	s.POST("/webhook", w.handleZoomWebhook)
}

func (w *WebhookRoutes) handleZoomWebhook(c echo.Context) error {
	return w.zoom.Handle(c.Response(), c.Request())
}

// handleRoot is a static placeholder so probes hitting the bare host get a
// harmless answer.
func (w *WebhookRoutes) handleRoot(c echo.Context) error {
	return c.String(http.StatusOK, "Unauthorized")
}
