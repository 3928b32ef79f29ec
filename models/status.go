package models

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCancelled OrderStatus = "cancelled"
)

// orderTransitions is the only place order status progress is defined.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderServed, OrderCancelled},
	OrderServed:    nil,
	OrderCancelled: nil,
}

// ParseOrderStatus returns the status named by s, or false if s is not one.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderTransitions[st]
	return st, ok
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
// Same-status requests are not transitions and return false here.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CallStatus is the lifecycle state of a WaiterCall.
type CallStatus string

const (
	CallPending   CallStatus = "pending"
	CallAttended  CallStatus = "attended"
	CallCancelled CallStatus = "cancelled"
)

var callTransitions = map[CallStatus][]CallStatus{
	CallPending:   {CallAttended, CallCancelled},
	CallAttended:  nil,
	CallCancelled: nil,
}

func ParseCallStatus(s string) (CallStatus, bool) {
	st := CallStatus(s)
	_, ok := callTransitions[st]
	return st, ok
}

func (s CallStatus) Valid() bool {
	_, ok := callTransitions[s]
	return ok
}

func (s CallStatus) IsTerminal() bool {
	return s.Valid() && len(callTransitions[s]) == 0
}

func (s CallStatus) CanTransitionTo(next CallStatus) bool {
	for _, candidate := range callTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}
