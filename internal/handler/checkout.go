package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Leandro1530/CinemaWeb-v4/internal/catalog"
	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
	"github.com/Leandro1530/CinemaWeb-v4/internal/seatmap"
)

// CheckoutHandler serves the seat availability and hold lifecycle
// endpoints.  Hold mutations require an authenticated checkout session and
// enforce ownership: only the session that created a hold may renew or
// release it.
type CheckoutHandler struct {
	Holds *hold.Manager
	Seats *seatmap.SeatMap
	Cat   catalog.Catalog
}

// NewCheckoutHandler constructs a CheckoutHandler.  All dependencies must
// be non-nil.
func NewCheckoutHandler(holds *hold.Manager, seats *seatmap.SeatMap, cat catalog.Catalog) *CheckoutHandler {
	if holds == nil || seats == nil || cat == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Holds: holds, Seats: seats, Cat: cat}
}

// GetShowtimeSeats handles GET /v1/showtimes/:id/seats.  It returns the
// showtime details plus the live status of every seat.  The snapshot is a
// point-in-time read; a seat can be taken between the read and a
// subsequent hold request, in which case the hold fails with 409.
func (h *CheckoutHandler) GetShowtimeSeats(c echo.Context) error {
	showtimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	st, err := h.Cat.Showtime(showtimeID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	}
	seats, err := h.Seats.Snapshot(showtimeID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id":      st.ID,
		"title":            st.Title,
		"hall":             st.Hall,
		"starts_at":        st.StartsAt.Format(time.RFC3339),
		"base_price_cents": st.BasePriceCents,
		"seats":            seats,
	})
}

// HoldSeats handles POST /v1/showtimes/:id/hold.  The body carries the
// requested seat labels plus optional combo IDs.  The hold is granted
// all-or-nothing: when any seat is taken the response is 409 with the
// offending labels and no seat changes status.
func (h *CheckoutHandler) HoldSeats(c echo.Context) error {
	sessionID, buyerEmail, err := sessionIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showtimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var body struct {
		SeatLabels []string `json:"seat_labels"`
		ComboIDs   []uint64 `json:"combo_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.SeatLabels) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_labels is required"})
	}
	// Reject unknown combos up front so a bad selection never ties up seats.
	known := make(map[uint64]struct{})
	for _, combo := range h.Cat.Combos() {
		known[combo.ID] = struct{}{}
	}
	for _, id := range body.ComboIDs {
		if _, ok := known[id]; !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown combo id", "combo_id": id})
		}
	}

	ctx := c.Request().Context()
	hd, err := h.Holds.Request(ctx, showtimeID, body.SeatLabels, body.ComboIDs, sessionID, buyerEmail)
	if err != nil {
		var unavailable *hold.SeatUnavailableError
		switch {
		case errors.As(err, &unavailable):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":       "some seats are unavailable",
				"unavailable": unavailable.Labels,
			})
		case errors.Is(err, seatmap.ErrUnknownShowtime):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case errors.Is(err, seatmap.ErrUnknownSeat):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown seat label"})
		case errors.Is(err, repository.ErrStorageUnavailable):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create hold"})
	}

	amount, err := h.Cat.QuoteHold(hd)
	if err != nil {
		// Combos were validated above; a quote failure here means the
		// catalog lost the showtime mid-flight.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to price hold"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_id":      hd.ID,
		"showtime_id":  hd.ShowtimeID,
		"seat_labels":  hd.SeatLabels,
		"combo_ids":    hd.ComboIDs,
		"amount_cents": amount,
		"expires_at":   hd.ExpiresAt.Format(time.RFC3339),
	})
}

// RenewHold handles POST /v1/holds/:id/renew.  It extends the hold's TTL
// from now.  A hold that already expired cannot be revived; the buyer must
// request a fresh one.
func (h *CheckoutHandler) RenewHold(c echo.Context) error {
	hd, errResp := h.ownedHold(c)
	if errResp != nil {
		return errResp(c)
	}
	renewed, err := h.Holds.Renew(c.Request().Context(), hd.ID)
	if err != nil {
		switch {
		case errors.Is(err, hold.ErrHoldExpired):
			return c.JSON(http.StatusConflict, echo.Map{"error": "hold expired"})
		case errors.Is(err, hold.ErrInvalidHoldState):
			return c.JSON(http.StatusConflict, echo.Map{"error": "hold is not active"})
		case errors.Is(err, repository.ErrStorageUnavailable):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to renew hold"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hold_id":    renewed.ID,
		"expires_at": renewed.ExpiresAt.Format(time.RFC3339),
	})
}

// ReleaseHold handles DELETE /v1/holds/:id.  Releasing is idempotent:
// deleting a hold that already reached a terminal state returns 204 as
// well.
func (h *CheckoutHandler) ReleaseHold(c echo.Context) error {
	hd, errResp := h.ownedHold(c)
	if errResp != nil {
		return errResp(c)
	}
	if err := h.Holds.Release(c.Request().Context(), hd.ID); err != nil {
		if errors.Is(err, repository.ErrStorageUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release hold"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ownedHold resolves the :id path parameter to a hold owned by the current
// session.  On failure it returns a non-nil responder that writes the
// error response.
func (h *CheckoutHandler) ownedHold(c echo.Context) (*model.Hold, func(echo.Context) error) {
	sessionID, _, err := sessionIdentity(c)
	if err != nil {
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
	}
	holdID := c.Param("id")
	if holdID == "" {
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
		}
	}
	hd, err := h.Holds.Get(holdID)
	if err != nil {
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
		}
	}
	if hd.SessionID != sessionID {
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return hd, nil
}

// sessionIdentity extracts the session ID and buyer email injected by the
// session middleware.
func sessionIdentity(c echo.Context) (sessionID, buyerEmail string, err error) {
	sid, _ := c.Get("session_id").(string)
	if sid == "" {
		return "", "", echo.ErrUnauthorized
	}
	email, _ := c.Get("buyer_email").(string)
	return sid, email, nil
}
