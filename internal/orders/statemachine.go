package orders

import "foodcourt-backoffice/internal/domain"

// Exhaustive lifecycle table. Cancelled is reachable from every non-terminal
// state; Completed and Cancelled accept nothing.
var allowedTransitions = map[domain.OrderStatus]map[domain.OrderStatus]bool{
	domain.OrderPending: {
		domain.OrderPreparing: true,
		domain.OrderCancelled: true,
	},
	domain.OrderPreparing: {
		domain.OrderReady:     true,
		domain.OrderCancelled: true,
	},
	domain.OrderReady: {
		domain.OrderCompleted: true,
		domain.OrderCancelled: true,
	},
	domain.OrderCompleted: {},
	domain.OrderCancelled: {},
}

func CanTransition(from, to domain.OrderStatus) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

func IsTerminal(status domain.OrderStatus) bool {
	return status == domain.OrderCompleted || status == domain.OrderCancelled
}

func ValidStatus(status domain.OrderStatus) bool {
	_, ok := allowedTransitions[status]
	return ok
}
