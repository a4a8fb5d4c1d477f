package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/webhook"
)

// WebhookHandler is the machine-facing ingress for gateway payment
// notifications.  It authenticates the raw body signature before any
// parsing, then hands the event to the reconciler.  Every verified event is
// acknowledged with 200 regardless of business outcome so the gateway
// stops redelivering; only a bad signature (401) or a storage failure
// (503) makes the gateway retry.
type WebhookHandler struct {
	Verifier   *webhook.Verifier
	Reconciler *webhook.Reconciler
}

// NewWebhookHandler constructs a WebhookHandler.  Both dependencies must
// be non-nil.
func NewWebhookHandler(v *webhook.Verifier, r *webhook.Reconciler) *WebhookHandler {
	if v == nil || r == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	return &WebhookHandler{Verifier: v, Reconciler: r}
}

// Receive handles POST /v1/webhook/gateway.
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	if !h.Verifier.Verify(body, c.Request().Header.Get(webhook.SignatureHeader)) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}

	var payload struct {
		EventID           string `json:"event_id"`
		ExternalReference string `json:"external_reference"`
		Status            string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if payload.EventID == "" || payload.ExternalReference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and external_reference are required"})
	}

	ev := model.WebhookEvent{
		EventID:       payload.EventID,
		GatewayRef:    payload.ExternalReference,
		ReportedState: payload.Status,
		PayloadHash:   webhook.PayloadHash(body),
		ReceivedAt:    time.Now().UTC(),
	}
	outcome, err := h.Reconciler.Process(c.Request().Context(), ev)
	if err != nil {
		// Storage failure: answer 503 so the gateway redelivers once the
		// journal is back.
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"result": outcome})
}
