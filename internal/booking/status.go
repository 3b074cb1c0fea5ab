// Package booking holds the domain rules for bookings: the status state
// machine and the ownership/role access policy. Everything in this package
// is pure and safe for concurrent use; the transition table is fixed at
// process start and never mutated.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// transitions maps each status to the statuses reachable from it in one
// step. cancelled is terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
}

// ErrUnknownStatus reports a status value outside the three known states.
// It is distinct from a disallowed transition: an unknown value is rejected
// before the transition table is ever consulted.
var ErrUnknownStatus = errors.New("unknown status value")

// Statuses returns every valid status in declaration order.
func Statuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusCancelled}
}

// StatusNames renders the valid statuses for error messages.
func StatusNames() string {
	all := Statuses()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// ParseStatus validates a raw string against the known statuses. The match
// is exact: statuses are lower case on the wire and no normalization is
// applied, so "Confirmed" is as invalid as "done".
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// CanTransition reports whether a booking may move from current to next.
// Unknown statuses have no outgoing edges and always return false.
func CanTransition(current, next Status) bool {
	for _, s := range transitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the statuses reachable from current.
func AllowedTransitions(current Status) []Status {
	allowed := transitions[current]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}

// AllowedTransitionNames renders the reachable set for error messages,
// "none" when the set is empty.
func AllowedTransitionNames(current Status) string {
	allowed := transitions[current]
	if len(allowed) == 0 {
		return "none"
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
