package transaction

import (
	"errors"
	"fmt"

	"github.com/Leandro1530/CinemaWeb-v4/internal/model"
)

// ErrTransactionNotFound is returned when the transaction ID is unknown.
var ErrTransactionNotFound = errors.New("transaction not found")

// DuplicateTransactionError is returned by Open when a non-terminal
// transaction already exists for the hold.
type DuplicateTransactionError struct {
	HoldID string
	OpenID string
}

func (e *DuplicateTransactionError) Error() string {
	return fmt.Sprintf("hold %s already has open transaction %s", e.HoldID, e.OpenID)
}

// InvalidTransitionError is returned when the requested transition is not
// legal: the source state is terminal, the target is not a legal
// successor, or a replay carries mismatching evidence.
type InvalidTransitionError struct {
	ID   string
	From model.TxState
	To   model.TxState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transaction %s: illegal transition %s -> %s", e.ID, e.From, e.To)
}
