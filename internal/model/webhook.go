package model

import "time"

// WebhookEvent is one inbound gateway notification after signature
// verification.  Gateways redeliver on timeout, so the EventID is the
// deduplication key; PayloadHash is kept for audit when duplicate IDs
// arrive with differing bodies.
type WebhookEvent struct {
	EventID       string
	GatewayRef    string
	ReportedState string
	PayloadHash   string
	ReceivedAt    time.Time
}
