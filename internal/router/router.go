package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/Leandro1530/CinemaWeb-v4/internal/handler"    // import the handlers that implement business logic
	"github.com/Leandro1530/CinemaWeb-v4/internal/middleware" // import middleware for session authentication and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated buyer-facing endpoints:
// session issuance and seat availability.  Both are rate limited; neither
// requires a session token.
func RegisterPublic(e *echo.Echo, s *handler.SessionHandler, ck *handler.CheckoutHandler, limit echo.MiddlewareFunc) {
	// Mint a checkout session.  This is the entry point of every purchase.
	e.POST("/v1/session", s.Start, limit)
	// Live seat availability for a showtime.  Guests browse this before
	// starting a session.
	e.GET("/v1/showtimes/:id/seats", ck.GetShowtimeSeats, limit)
}

// RegisterCheckout registers the session-protected hold and payment
// endpoints under /v1.  Every handler in this group can rely on
// "session_id" and "buyer_email" being present in the request context.
func RegisterCheckout(e *echo.Echo, ck *handler.CheckoutHandler, p *handler.PaymentHandler, st *handler.StatusHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.SessionAuth(jwtSecret))
	g.Use(limit)

	// Hold lifecycle: request, renew, release.
	g.POST("/showtimes/:id/hold", ck.HoldSeats)
	g.POST("/holds/:id/renew", ck.RenewHold)
	g.DELETE("/holds/:id", ck.ReleaseHold)

	// Payment rails.
	g.POST("/pay/direct", p.PayDirect)
	g.POST("/pay/gateway/initiate", p.InitiateGateway)

	// Transaction status polling for the asynchronous gateway rail.
	g.GET("/transactions/:id", st.GetTransaction)
}

// RegisterWebhook registers the machine-facing gateway notification
// endpoint.  It authenticates with an HMAC signature instead of a session
// token and carries its own, larger rate budget because gateways burst on
// redelivery.
func RegisterWebhook(e *echo.Echo, wh *handler.WebhookHandler, limit echo.MiddlewareFunc) {
	e.POST("/v1/webhook/gateway", wh.Receive, limit)
}
