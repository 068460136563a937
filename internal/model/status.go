package model

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusApproved   Status = "APPROVED"
	StatusCooking    Status = "COOKING"
	StatusDelivering Status = "DELIVERING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// statusFlow is the linear progression; CANCELLED sits outside it.
var statusFlow = []Status{StatusNew, StatusApproved, StatusCooking, StatusDelivering, StatusCompleted}

// OpenStatuses lists the states shown on the manager dashboard, in display order.
var OpenStatuses = []Status{StatusNew, StatusApproved, StatusCooking, StatusDelivering}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCancelled || s.rank() >= 0
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo allows exactly one step forward along the flow, or a
// cancellation from any non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return next.rank() == s.rank()+1
}

func (s Status) rank() int {
	for i, st := range statusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// PaymentType is how the customer pays.
type PaymentType string

const (
	PaymentCash   PaymentType = "cash"
	PaymentOnline PaymentType = "online"
)

// Valid reports whether p is a known payment type.
func (p PaymentType) Valid() bool {
	return p == PaymentCash || p == PaymentOnline
}
