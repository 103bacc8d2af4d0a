package services

import (
	"github.com/tailorworks/tailorshop-api/models"
)

// statusFlow maps each status to the only status it may advance to.
// Delivered and Cancelled are terminal.
var statusFlow = map[string][]string{
	models.StatusPending:    {models.StatusAssigned},
	models.StatusAssigned:   {models.StatusInProgress},
	models.StatusInProgress: {models.StatusReady},
	models.StatusReady:      {models.StatusDelivered},
	models.StatusDelivered:  {},
	models.StatusCancelled:  {},
}

// cancellableFrom lists the statuses an order may be cancelled from
var cancellableFrom = map[string]bool{
	models.StatusPending:    true,
	models.StatusAssigned:   true,
	models.StatusInProgress: true,
}

// NextStatuses returns the forward successors of status
func NextStatuses(status string) []string {
	return statusFlow[status]
}

// CanCancel reports whether an actor with role may cancel an order in status current
func CanCancel(role, current string) bool {
	elevated := role == models.RoleAdmin || role == models.RoleManager
	return elevated && cancellableFrom[current]
}

// IsValidTransition reports whether an actor with role may move an order from current to next.
// Moving to the same status is always allowed and changes nothing.
func IsValidTransition(current, next, role string) bool {
	if !models.IsValidStatus(current) || !models.IsValidStatus(next) {
		return false
	}
	if current == next {
		return true
	}
	if next == models.StatusCancelled {
		return CanCancel(role, current)
	}
	for _, s := range statusFlow[current] {
		if s == next {
			return true
		}
	}
	return false
}
