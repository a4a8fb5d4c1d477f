package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-sql-driver/mysql"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// mysqlDupEntry is the MySQL error number for a duplicate key violation.
const mysqlDupEntry = 1062

// SQLEventLog stores processed webhook event IDs in the webhook_events
// table.  The primary key on gateway_event_id makes the insert itself the
// deduplication primitive: a duplicate key violation means the event was
// already processed.
type SQLEventLog struct {
	db *sql.DB
}

// NewSQLEventLog returns an EventLog bound to the provided database.
func NewSQLEventLog(db *sql.DB) *SQLEventLog { return &SQLEventLog{db: db} }

// MarkProcessed implements EventLog.
func (l *SQLEventLog) MarkProcessed(ctx context.Context, ev model.WebhookEvent) (bool, error) {
	const q = `INSERT INTO webhook_events
        (gateway_event_id, gateway_ref, reported_state, payload_hash, received_at)
        VALUES (?, ?, ?, ?, ?)`
	_, err := l.db.ExecContext(ctx, q,
		ev.EventID, ev.GatewayRef, ev.ReportedState, ev.PayloadHash, ev.ReceivedAt.UTC(),
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return false, nil
		}
		return false, fmt.Errorf("%w: insert webhook event: %v", ErrStorageUnavailable, err)
	}
	return true, nil
}

// MemoryEventLog is an EventLog kept in process memory.  It backs tests
// and single-node deployments that run without MySQL.
type MemoryEventLog struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryEventLog returns an empty MemoryEventLog.
func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{seen: make(map[string]struct{})}
}

// MarkProcessed implements EventLog.
func (l *MemoryEventLog) MarkProcessed(_ context.Context, ev model.WebhookEvent) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[ev.EventID]; ok {
		return false, nil
	}
	l.seen[ev.EventID] = struct{}{}
	return true, nil
}
