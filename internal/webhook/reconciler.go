// Package webhook reconciles asynchronous gateway notifications with the
// transactions that initiated them.  Gateways redeliver on timeout and
// deliver out of order, so processing is idempotent end to end: duplicate
// event IDs are acknowledged without reprocessing, replays of an already
// applied outcome are no-ops, and conflicting outcomes after finalization
// are rejected by the state machine and logged for manual audit instead of
// flipping money-state.
package webhook

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Leandro1530/CinemaWeb-v4/internal/hold"
	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
	"github.com/Leandro1530/CinemaWeb-v4/internal/repository"
	"github.com/Leandro1530/CinemaWeb-v4/internal/transaction"
)

// Outcome tells the ingress handler what happened to an event.  All
// outcomes except a storage failure are acknowledged with success so the
// gateway stops redelivering.
type Outcome string

const (
	// OutcomeApplied means the reported state was applied (or replayed
	// idempotently) to the transaction.
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate means the event ID was already processed.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomePending means the gateway reported a non-final state; no
	// transition is applied.
	OutcomePending Outcome = "pending"
	// OutcomeUnknownReference means no transaction matches the gateway
	// reference; logged, acknowledged, never retried.
	OutcomeUnknownReference Outcome = "unknown_reference"
	// OutcomeConflict means the transaction was already finalized with a
	// different outcome; the event is rejected and logged for audit.
	OutcomeConflict Outcome = "conflict"
	// OutcomeIgnored means the reported state is not one we understand.
	OutcomeIgnored Outcome = "ignored"
)

// Reconciler applies verified webhook events to the transaction store.
type Reconciler struct {
	store  *transaction.Store
	events repository.EventLog
}

// NewReconciler builds a Reconciler.
func NewReconciler(store *transaction.Store, events repository.EventLog) *Reconciler {
	if store == nil || events == nil {
		panic("nil dependency passed to webhook.NewReconciler")
	}
	return &Reconciler{store: store, events: events}
}

// Process handles one verified event.  The returned error is non-nil only
// for storage failures; every business-level miss is an Outcome so the
// handler can acknowledge and move on.
func (r *Reconciler) Process(ctx context.Context, ev model.WebhookEvent) (Outcome, error) {
	first, err := r.events.MarkProcessed(ctx, ev)
	if err != nil {
		return "", err
	}
	if !first {
		log.Printf("reconciler: duplicate event %s (ref=%s), acknowledged", ev.EventID, ev.GatewayRef)
		return OutcomeDuplicate, nil
	}

	txID, ok := r.store.ResolveRef(ev.GatewayRef)
	if !ok {
		log.Printf("reconciler: unknown reference %q (event=%s), acknowledged", ev.GatewayRef, ev.EventID)
		return OutcomeUnknownReference, nil
	}

	target, final := mapReportedState(ev.ReportedState)
	if !final {
		if target == "" {
			log.Printf("reconciler: unrecognized state %q (event=%s), acknowledged", ev.ReportedState, ev.EventID)
			return OutcomeIgnored, nil
		}
		return OutcomePending, nil
	}

	_, err = r.store.Transition(ctx, txID, target, transaction.Evidence{
		GatewayRef: ev.GatewayRef,
		Source:     "webhook",
	})
	if err != nil {
		var invalid *transaction.InvalidTransitionError
		switch {
		case errors.As(err, &invalid),
			errors.Is(err, hold.ErrHoldExpired),
			errors.Is(err, hold.ErrInvalidHoldState):
			// Money-state never flips after finalization, and an approval
			// whose hold already lapsed cannot resurrect the seats; keep
			// the event for manual audit.
			log.Printf("reconciler: CONFLICT event=%s ref=%s reported=%s: %v",
				ev.EventID, ev.GatewayRef, ev.ReportedState, err)
			return OutcomeConflict, nil
		}
		return "", err
	}
	return OutcomeApplied, nil
}

// mapReportedState translates gateway vocabulary into the transaction
// state machine.  final is false for states that apply no transition.
func mapReportedState(reported string) (target model.TxState, final bool) {
	switch strings.ToLower(strings.TrimSpace(reported)) {
	case "approved":
		return model.TxApproved, true
	case "rejected":
		return model.TxRejected, true
	case "cancelled", "canceled":
		return model.TxCancelled, true
	case "pending", "in_process":
		return model.TxPending, false
	default:
		return "", false
	}
}
