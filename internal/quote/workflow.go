package quote

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

var (
	ErrUnknownStatus     = errors.New("unknown quote status")
	ErrInvalidTransition = errors.New("invalid quote status transition")
)

// allowedTransitions maps each status to the set of statuses reachable from it.
// rejected, expired and converted are terminal. Self-transitions are never allowed.
var allowedTransitions = map[QuoteStatus]map[QuoteStatus]bool{
	StatusDraft: {
		StatusPending: true,
		StatusSent:    true,
	},
	StatusPending: {
		StatusSent:     true,
		StatusRejected: true,
	},
	StatusSent: {
		StatusViewed:   true,
		StatusAccepted: true,
		StatusRejected: true,
		StatusExpired:  true,
	},
	StatusViewed: {
		StatusAccepted: true,
		StatusRejected: true,
		StatusExpired:  true,
	},
	StatusAccepted: {
		StatusConverted: true,
	},
	StatusRejected:  {},
	StatusExpired:   {},
	StatusConverted: {},
}

// ValidateTransition reports whether a quote may move from one status to
// another. It is a pure check: no quote state is read or written here.
func ValidateTransition(from, to QuoteStatus) error {
	if !from.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if from == to || !allowedTransitions[from][to] {
		return fmt.Errorf("%w: cannot move quote from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// NewStatusChange builds the audit record for an already-validated transition.
// Callers must run ValidateTransition first; this constructor does not re-check.
func NewStatusChange(quoteID uuid.UUID, from, to QuoteStatus, actorID, actorName, comment string, metadata map[string]any) StatusChange {
	return StatusChange{
		ID:         uuid.Must(uuid.NewV4()),
		QuoteID:    quoteID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		ActorName:  actorName,
		Comment:    comment,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
}

// ActivityTypeForStatus maps a newly entered status to its activity-log
// category. Statuses without a dedicated category fall back to status_changed.
func ActivityTypeForStatus(status QuoteStatus) ActivityType {
	switch status {
	case StatusSent:
		return ActivityQuoteSent
	case StatusViewed:
		return ActivityQuoteViewed
	case StatusAccepted:
		return ActivityQuoteAccepted
	case StatusRejected:
		return ActivityQuoteRejected
	case StatusExpired:
		return ActivityQuoteExpired
	case StatusConverted:
		return ActivityQuoteConverted
	default:
		return ActivityStatusChanged
	}
}

// TimestampColumn names the lifecycle timestamp column stamped on first entry
// into the given status. Not every status carries one.
func TimestampColumn(status QuoteStatus) (string, bool) {
	switch status {
	case StatusSent:
		return "sent_at", true
	case StatusViewed:
		return "viewed_at", true
	case StatusAccepted:
		return "accepted_at", true
	case StatusRejected:
		return "rejected_at", true
	case StatusConverted:
		return "converted_at", true
	default:
		return "", false
	}
}

// notifiableStatuses are the transitions that may trigger a customer email.
var notifiableStatuses = map[QuoteStatus]bool{
	StatusSent:     true,
	StatusAccepted: true,
	StatusRejected: true,
}

// ShouldNotifyCustomer reports whether entering status warrants a customer
// notification.
func ShouldNotifyCustomer(status QuoteStatus) bool {
	return notifiableStatuses[status]
}
