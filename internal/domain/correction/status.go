package correction

import "fmt"

// Status is the lifecycle state of a correction request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every known status in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled}

// ParseStatus accepts exactly the stored spelling.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown correction status %q", s)
	}
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPending:
		return false
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		panic(fmt.Sprintf("correction: unhandled status %q", string(s)))
	}
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		switch next {
		case StatusApproved, StatusRejected, StatusCancelled:
			return true
		case StatusPending:
			return false
		default:
			panic(fmt.Sprintf("correction: unhandled status %q", string(next)))
		}
	case StatusApproved, StatusRejected, StatusCancelled:
		return false
	default:
		panic(fmt.Sprintf("correction: unhandled status %q", string(s)))
	}
}

func (s Status) String() string {
	return string(s)
}
