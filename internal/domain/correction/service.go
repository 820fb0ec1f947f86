package correction

import (
	"context"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
)

// WorkflowService moves correction requests through their lifecycle.
type WorkflowService interface {
	Submit(ctx context.Context, actor auth.Actor, req SubmitRequest) (RequestResponse, error)
	Approve(ctx context.Context, actor auth.Actor, req ApproveRequest) (RequestResponse, error)
	Reject(ctx context.Context, actor auth.Actor, req RejectRequest) (RequestResponse, error)
	Cancel(ctx context.Context, actor auth.Actor, req CancelRequest) (RequestResponse, error)

	// BulkApprove and BulkReject only fail as a whole for an invalid batch or a
	// non-admin actor. Per-id failures are reported in the result.
	BulkApprove(ctx context.Context, actor auth.Actor, req BulkApproveRequest) (BulkResult, error)
	BulkReject(ctx context.Context, actor auth.Actor, req BulkRejectRequest) (BulkResult, error)
}

// QueryService is the read side over correction requests.
type QueryService interface {
	Get(ctx context.Context, actor auth.Actor, id int64) (RequestResponse, error)
	ListMine(ctx context.Context, actor auth.Actor, filter MyRequestFilter) (ListRequestResponse, error)
	ListForModeration(ctx context.Context, actor auth.Actor, filter PendingRequestFilter) (ListRequestResponse, error)
	CountMine(ctx context.Context, actor auth.Actor, status *string) (CountResponse, error)
	CountPending(ctx context.Context, actor auth.Actor) (CountResponse, error)
}

// DecisionEvent is pushed to the owning employee after a request leaves PENDING.
type DecisionEvent struct {
	RequestID int64     `json:"request_id"`
	Status    string    `json:"status"`
	Date      string    `json:"stamp_date"`
	DecidedAt time.Time `json:"decided_at"`
}

// Notifier delivers decision events. Delivery is best-effort.
type Notifier interface {
	NotifyDecision(employeeID string, event DecisionEvent)
}
