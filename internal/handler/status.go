package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/transaction"
)

// StatusHandler serves transaction status reads.  The gateway rail is
// asynchronous, so buyers poll this endpoint while the webhook outcome is
// in flight.
type StatusHandler struct {
	Store *transaction.Store
	Holds *hold.Manager
}

// NewStatusHandler constructs a StatusHandler.  Both dependencies must be
// non-nil.
func NewStatusHandler(store *transaction.Store, holds *hold.Manager) *StatusHandler {
	if store == nil || holds == nil {
		panic("nil dependency passed to NewStatusHandler")
	}
	return &StatusHandler{Store: store, Holds: holds}
}

// GetTransaction handles GET /v1/transactions/:id.  Only the session that
// owns the underlying hold may read the transaction.
func (h *StatusHandler) GetTransaction(c echo.Context) error {
	sid, _ := c.Get("session_id").(string)
	if sid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	txID := c.Param("id")
	if txID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	tx, err := h.Store.Get(txID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	}
	hd, err := h.Holds.Get(tx.HoldID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	}
	if hd.SessionID != sid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	attempts := make([]echo.Map, 0, len(tx.Attempts))
	for _, a := range tx.Attempts {
		attempts = append(attempts, echo.Map{
			"brand":   a.Brand,
			"last4":   a.Last4,
			"valid":   a.Valid,
			"reasons": a.Reasons,
			"at":      a.At.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"transaction_id": tx.ID,
		"hold_id":        tx.HoldID,
		"rail":           tx.Rail,
		"state":          tx.State,
		"amount_cents":   tx.AmountCents,
		"currency":       tx.Currency,
		"gateway_ref":    tx.GatewayRef,
		"created_at":     tx.CreatedAt.Format(time.RFC3339),
		"updated_at":     tx.UpdatedAt.Format(time.RFC3339),
		"attempts":       attempts,
	})
}
