package correction

import (
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
)

// Request is a row of stamp_request. Original, Requested and Reason never change
// after insert.
type Request struct {
	ID         int64
	EmployeeID string
	RecordID   *string // nil when no stamp existed for Date at submission
	Date       time.Time
	Status     Status

	Original  attendance.Values
	Requested attendance.Values
	Reason    string

	ApprovalNote        *string
	RejectionReason     *string
	CancellationReason  *string
	ApprovalEmployeeID  *string
	RejectionEmployeeID *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time
	RejectedAt  *time.Time
	CancelledAt *time.Time
}

// Target is what a request corrects: an existing stamp, or a bare date.
type Target struct {
	RecordID *string
	Date     time.Time
}

func (r Request) Target() Target {
	return Target{RecordID: r.RecordID, Date: r.Date}
}

// Decision holds the only columns UpdateStatus may write.
type Decision struct {
	Status  Status
	Note    *string // approval note, rejection reason or cancellation reason
	ActorID *string // approver or rejecter; not stored for cancellations
	At      time.Time
}

// Apply copies the decision onto r the way the store persists it.
func (d Decision) Apply(r *Request) {
	r.Status = d.Status
	r.UpdatedAt = d.At
	at := d.At
	switch d.Status {
	case StatusApproved:
		r.ApprovalNote = d.Note
		r.ApprovalEmployeeID = d.ActorID
		r.ApprovedAt = &at
	case StatusRejected:
		r.RejectionReason = d.Note
		r.RejectionEmployeeID = d.ActorID
		r.RejectedAt = &at
	case StatusCancelled:
		r.CancellationReason = d.Note
		r.CancelledAt = &at
	case StatusPending:
	}
}
