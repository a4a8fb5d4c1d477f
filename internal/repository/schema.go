package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the DDL for the journal tables.  Statements are
// idempotent so the server can run them on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS holds (
        id          CHAR(36)     NOT NULL PRIMARY KEY,
        showtime_id BIGINT UNSIGNED NOT NULL,
        session_id  CHAR(36)     NOT NULL,
        buyer_email VARCHAR(255) NOT NULL,
        seat_labels TEXT         NOT NULL,
        combo_ids   TEXT         NOT NULL,
        state       VARCHAR(16)  NOT NULL,
        created_at  DATETIME     NOT NULL,
        expires_at  DATETIME     NOT NULL,
        updated_at  DATETIME     NULL,
        KEY idx_holds_showtime (showtime_id)
    )`,
	`CREATE TABLE IF NOT EXISTS transactions (
        id           CHAR(36)    NOT NULL PRIMARY KEY,
        hold_id      CHAR(36)    NOT NULL,
        rail         VARCHAR(16) NOT NULL,
        amount_cents BIGINT      NOT NULL,
        currency     CHAR(3)     NOT NULL,
        state        VARCHAR(16) NOT NULL,
        gateway_ref  VARCHAR(64) NOT NULL DEFAULT '',
        created_at   DATETIME    NOT NULL,
        updated_at   DATETIME    NOT NULL,
        KEY idx_transactions_hold (hold_id),
        KEY idx_transactions_ref (gateway_ref)
    )`,
	`CREATE TABLE IF NOT EXISTS payment_attempts (
        id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        transaction_id CHAR(36)    NOT NULL,
        brand          VARCHAR(16) NOT NULL,
        last4          CHAR(4)     NOT NULL,
        valid          BOOLEAN     NOT NULL,
        reasons        TEXT        NOT NULL,
        created_at     DATETIME    NOT NULL,
        KEY idx_attempts_transaction (transaction_id)
    )`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
        gateway_event_id VARCHAR(64) NOT NULL PRIMARY KEY,
        gateway_ref      VARCHAR(64) NOT NULL,
        reported_state   VARCHAR(32) NOT NULL,
        payload_hash     CHAR(64)    NOT NULL,
        received_at      DATETIME    NOT NULL
    )`,
}

// EnsureSchema creates the journal tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
