package order

import "fmt"

// Status is the order lifecycle state. The only mutation path for an order
// after creation is a transition through this machine; cancellation is a
// status, not a deletion.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %q to %q", e.From, e.To)
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s Status) bool {
	return ValidStatus(s) && len(transitions[s]) == 0
}

// CanTransition validates a status change. A same-status transition is a
// no-op success.
func CanTransition(from, to Status) error {
	if !ValidStatus(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	if from == to {
		return nil
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return &InvalidTransitionError{From: from, To: to}
}

// Cancellable reports whether a non-admin owner may still cancel.
func Cancellable(s Status) bool {
	return CanTransition(s, StatusCancelled) == nil && s != StatusCancelled
}
