package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionHandler issues checkout session tokens.  A session is the unit of
// hold ownership: the hold, renew, release, pay and status endpoints all
// require the bearer token this handler mints, and holds created under one
// session cannot be manipulated from another.
type SessionHandler struct {
	secret string
	ttl    time.Duration
}

// NewSessionHandler constructs a SessionHandler.  The secret must not be
// empty; it signs every session token.
func NewSessionHandler(secret string, ttl time.Duration) *SessionHandler {
	if secret == "" {
		panic("empty secret passed to NewSessionHandler")
	}
	return &SessionHandler{secret: secret, ttl: ttl}
}

// Start handles POST /v1/session.  It accepts a JSON body with the buyer's
// email, mints a fresh session ID and returns it together with a signed
// HS256 bearer token.  The email travels with every hold so the receipt
// pipeline knows where to send the confirmation.
func (h *SessionHandler) Start(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.TrimSpace(body.Email)
	if email == "" || !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a valid email is required"})
	}

	sid := uuid.NewString()
	now := time.Now().UTC()
	expires := now.Add(h.ttl)
	claims := jwt.MapClaims{
		"sid":   sid,
		"email": email,
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(h.secret))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign session token"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"session_id": sid,
		"token":      signed,
		"expires_at": expires.Format(time.RFC3339),
	})
}
