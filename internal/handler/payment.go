package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/payment"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
	"github.com/Leandro1530/CinemaWeb-v4/internal/transaction"
)

// PaymentHandler exposes the two payment rails.  The direct rail settles
// synchronously in the request; the gateway rail only opens a PENDING
// transaction and returns the reference the buyer completes out of band.
type PaymentHandler struct {
	Holds   *hold.Manager
	Direct  *payment.DirectProcessor
	Gateway *payment.GatewayProcessor
}

// NewPaymentHandler constructs a PaymentHandler.  All dependencies must be
// non-nil.
func NewPaymentHandler(holds *hold.Manager, direct *payment.DirectProcessor, gateway *payment.GatewayProcessor) *PaymentHandler {
	if holds == nil || direct == nil || gateway == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Holds: holds, Direct: direct, Gateway: gateway}
}

// PayDirect handles POST /v1/pay/direct.  It validates the card and drives
// the transaction to APPROVED or REJECTED in one round trip.  A declined
// card answers 402 with the decline reasons; the hold is released and the
// buyer starts over with a fresh hold.  Card data is never stored; only
// brand and last four digits survive into the audit trail.
func (h *PaymentHandler) PayDirect(c echo.Context) error {
	var body struct {
		HoldID string            `json:"hold_id"`
		Card   model.CardPayload `json:"card"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.HoldID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_id is required"})
	}
	if resp := h.requireOwnership(c, body.HoldID); resp != nil {
		return resp(c)
	}

	tx, res, err := h.Direct.Pay(c.Request().Context(), body.HoldID, body.Card)
	if err != nil {
		return paymentError(c, err)
	}

	out := echo.Map{
		"transaction_id": tx.ID,
		"hold_id":        tx.HoldID,
		"state":          tx.State,
		"amount_cents":   tx.AmountCents,
		"currency":       tx.Currency,
		"brand":          res.Brand,
	}
	if tx.State == model.TxRejected {
		out["reasons"] = res.Reasons
		return c.JSON(http.StatusPaymentRequired, out)
	}
	return c.JSON(http.StatusCreated, out)
}

// InitiateGateway handles POST /v1/pay/gateway/initiate.  It opens a
// PENDING transaction and returns the external reference the gateway will
// echo back in its webhook notifications.  The hold keeps ticking; the
// buyer should complete payment before it expires.
func (h *PaymentHandler) InitiateGateway(c echo.Context) error {
	var body struct {
		HoldID string `json:"hold_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.HoldID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_id is required"})
	}
	if resp := h.requireOwnership(c, body.HoldID); resp != nil {
		return resp(c)
	}

	tx, err := h.Gateway.Initiate(c.Request().Context(), body.HoldID)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"transaction_id": tx.ID,
		"hold_id":        tx.HoldID,
		"gateway_ref":    tx.GatewayRef,
		"state":          tx.State,
		"amount_cents":   tx.AmountCents,
		"currency":       tx.Currency,
		"created_at":     tx.CreatedAt.Format(time.RFC3339),
	})
}

// requireOwnership verifies the hold belongs to the current session.  It
// returns a non-nil responder on failure.
func (h *PaymentHandler) requireOwnership(c echo.Context, holdID string) func(echo.Context) error {
	sid, _ := c.Get("session_id").(string)
	if sid == "" {
		return func(c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
	}
	hd, err := h.Holds.Get(holdID)
	if err != nil {
		return func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
		}
	}
	if hd.SessionID != sid {
		return func(c echo.Context) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return nil
}

// paymentError maps engine errors from either rail onto HTTP responses.
func paymentError(c echo.Context, err error) error {
	var dup *transaction.DuplicateTransactionError
	switch {
	case errors.Is(err, hold.ErrHoldNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
	case errors.Is(err, hold.ErrHoldExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "hold expired"})
	case errors.Is(err, hold.ErrInvalidHoldState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "hold is not active"})
	case errors.As(err, &dup):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":          "a transaction is already open for this hold",
			"transaction_id": dup.OpenID,
		})
	case errors.Is(err, repository.ErrStorageUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
}
