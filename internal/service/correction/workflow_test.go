package correction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/employee"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	taroID   = "0b6f3c2e-5d4a-4e1f-9a7b-1c2d3e4f5a60"
	hanakoID = "1c7a4d3f-6e5b-4f20-8b8c-2d3e4f5a6b71"
	adminID  = "2d8b5e40-7f6c-4031-9c9d-3e4f5a6b7c82"
)

var (
	fixedNow  = time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	stampDate = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

	taro   = auth.Actor{EmployeeID: taroID}
	hanako = auth.Actor{EmployeeID: hanakoID}
	admin  = auth.Actor{EmployeeID: adminID, IsAdmin: true}
)

type harness struct {
	svc      *WorkflowServiceImpl
	query    *QueryServiceImpl
	requests *memRequests
	records  *memRecords
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	employees := &memEmployees{employees: map[string]employee.Employee{
		taroID:   {ID: taroID, FullName: "Taro Yamada"},
		hanakoID: {ID: hanakoID, FullName: "Hanako Sato"},
		adminID:  {ID: adminID, FullName: "Aiko Admin", IsAdmin: true},
	}}
	names := map[string]string{taroID: "Taro Yamada", hanakoID: "Hanako Sato", adminID: "Aiko Admin"}

	h := &harness{
		requests: newMemRequests(names),
		records:  newMemRecords(),
		notifier: &recordingNotifier{},
	}

	svc := NewWorkflowService(&serialTx{}, h.requests, h.records, employees, h.notifier, Config{
		Location:        time.UTC,
		BulkMaxIDs:      5,
		BulkConcurrency: 2,
		BulkItemTimeout: 50 * time.Millisecond,
	}).(*WorkflowServiceImpl)
	svc.now = func() time.Time { return fixedNow }

	h.svc = svc
	h.query = NewQueryService(h.requests, employees).(*QueryServiceImpl)
	return h
}

func strPtr(s string) *string { return &s }

func at(date time.Time, hour, minute int) *time.Time {
	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
	return &t
}

// seedStamp stores Taro's stamp for stampDate: 09:10-18:00 with a 12:00-13:00 break.
func (h *harness) seedStamp(t *testing.T) attendance.Record {
	t.Helper()
	return h.records.seed(t, attendance.Record{
		EmployeeID:     taroID,
		Date:           stampDate,
		InTime:         at(stampDate, 9, 10),
		OutTime:        at(stampDate, 18, 0),
		BreakStartTime: at(stampDate, 12, 0),
		BreakEndTime:   at(stampDate, 13, 0),
	})
}

func (h *harness) submitOn(t *testing.T, actor auth.Actor, date string) correction.RequestResponse {
	t.Helper()
	resp, err := h.svc.Submit(context.Background(), actor, correction.SubmitRequest{
		Date:   strPtr(date),
		InTime: strPtr("09:00"),
		Reason: "forgot to stamp",
	})
	require.NoError(t, err)
	return resp
}

func requireValidationError(t *testing.T, err error) validator.ValidationErrors {
	t.Helper()
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve), "expected validation errors, got %v", err)
	return ve
}

func TestSubmit_CapturesSnapshotOfStamp(t *testing.T) {
	h := newHarness(t)
	rec := h.seedStamp(t)

	resp, err := h.svc.Submit(context.Background(), taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID),
		InTime:   strPtr("09:00"),
		OutTime:  strPtr("18:00"),
		Reason:   "  card reader was down  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, taroID, resp.EmployeeID)
	assert.Equal(t, "Taro Yamada", resp.EmployeeName)
	require.NotNil(t, resp.RecordID)
	assert.Equal(t, rec.ID, *resp.RecordID)
	assert.Equal(t, "2024-03-14", resp.Date)
	assert.Equal(t, "card reader was down", resp.Reason)

	require.NotNil(t, resp.Original.InTime)
	assert.Equal(t, "2024-03-14T09:10:00Z", *resp.Original.InTime)
	require.NotNil(t, resp.Original.BreakStartTime)
	assert.Equal(t, "2024-03-14T12:00:00Z", *resp.Original.BreakStartTime)
	require.NotNil(t, resp.Requested.InTime)
	assert.Equal(t, "2024-03-14T09:00:00Z", *resp.Requested.InTime)
	assert.Nil(t, resp.Requested.BreakStartTime)

	assert.Nil(t, resp.ApprovalEmployeeID)
	assert.Nil(t, resp.ApprovedAt)
}

func TestSubmit_DateOnlyBindsExistingStamp(t *testing.T) {
	h := newHarness(t)
	rec := h.seedStamp(t)

	resp := h.submitOn(t, taro, "2024-03-14")

	require.NotNil(t, resp.RecordID)
	assert.Equal(t, rec.ID, *resp.RecordID)
	require.NotNil(t, resp.Original.InTime)
	assert.Equal(t, "2024-03-14T09:10:00Z", *resp.Original.InTime)
}

func TestSubmit_DateOnlyWithoutStamp(t *testing.T) {
	h := newHarness(t)

	resp := h.submitOn(t, taro, "2024-03-15")

	assert.Nil(t, resp.RecordID)
	assert.Equal(t, "2024-03-15", resp.Date)
	assert.Nil(t, resp.Original.InTime)
	assert.Nil(t, resp.Original.OutTime)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   correction.SubmitRequest
		field string
	}{
		{
			name:  "blank reason",
			req:   correction.SubmitRequest{Date: strPtr("2024-03-14"), InTime: strPtr("09:00"), Reason: "   "},
			field: "reason",
		},
		{
			name:  "future date",
			req:   correction.SubmitRequest{Date: strPtr("2024-03-21"), InTime: strPtr("09:00"), Reason: "late stamp"},
			field: "stamp_date",
		},
		{
			name: "break ends before it starts",
			req: correction.SubmitRequest{
				Date:           strPtr("2024-03-14"),
				InTime:         strPtr("09:00"),
				BreakStartTime: strPtr("13:00"),
				BreakEndTime:   strPtr("12:00"),
				Reason:         "wrong break",
			},
			field: "break_end_time",
		},
		{
			name:  "unparseable clock",
			req:   correction.SubmitRequest{Date: strPtr("2024-03-14"), InTime: strPtr("25:00"), Reason: "typo"},
			field: "in_time",
		},
		{
			name:  "no target",
			req:   correction.SubmitRequest{InTime: strPtr("09:00"), Reason: "no date"},
			field: "stamp_history_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.svc.Submit(context.Background(), taro, tt.req)

			ve := requireValidationError(t, err)
			assert.Equal(t, tt.field, ve[0].Field)

			count, err := h.requests.CountPending(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestSubmit_AccessErrors(t *testing.T) {
	h := newHarness(t)
	rec := h.seedStamp(t)

	_, err := h.svc.Submit(context.Background(), auth.Actor{}, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), InTime: strPtr("09:00"), Reason: "x",
	})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = h.svc.Submit(context.Background(), hanako, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), InTime: strPtr("09:00"), Reason: "not mine",
	})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = h.svc.Submit(context.Background(), taro, correction.SubmitRequest{
		RecordID: strPtr(uuid.NewString()), InTime: strPtr("09:00"), Reason: "missing",
	})
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)

	_, err = h.svc.Submit(context.Background(), taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), Date: strPtr("2024-03-13"), InTime: strPtr("09:00"), Reason: "wrong date",
	})
	ve := requireValidationError(t, err)
	assert.Equal(t, "stamp_date", ve[0].Field)
}

func TestSubmit_RejectsSecondPendingForSameStamp(t *testing.T) {
	h := newHarness(t)
	rec := h.seedStamp(t)

	_, err := h.svc.Submit(context.Background(), taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), InTime: strPtr("09:00"), Reason: "first",
	})
	require.NoError(t, err)

	_, err = h.svc.Submit(context.Background(), taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), OutTime: strPtr("19:00"), Reason: "second",
	})
	assert.ErrorIs(t, err, correction.ErrDuplicatePending)

	// A date-only submission binds to the same stamp
	_, err = h.svc.Submit(context.Background(), taro, correction.SubmitRequest{
		Date: strPtr("2024-03-14"), OutTime: strPtr("19:00"), Reason: "third",
	})
	assert.ErrorIs(t, err, correction.ErrDuplicatePending)

	// Other dates are unaffected
	h.submitOn(t, taro, "2024-03-13")
}

func TestSubmit_StampCreatedAfterDateOnlyRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	dateOnly := h.submitOn(t, taro, "2024-03-14")
	assert.Nil(t, dateOnly.RecordID)

	// The stamp shows up after the request was filed
	rec := h.seedStamp(t)

	_, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), OutTime: strPtr("19:00"), Reason: "second",
	})
	assert.ErrorIs(t, err, correction.ErrDuplicatePending)

	pending := correction.StatusPending
	count, err := h.requests.CountByEmployee(ctx, taroID, &pending)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = h.svc.Cancel(ctx, taro, correction.CancelRequest{ID: dateOnly.ID})
	require.NoError(t, err)

	resubmitted, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), OutTime: strPtr("19:00"), Reason: "second",
	})
	require.NoError(t, err)
	require.NotNil(t, resubmitted.RecordID)
	assert.Equal(t, rec.ID, *resubmitted.RecordID)
}

func TestSubmit_ConcurrentSubmissionsLeaveOnePending(t *testing.T) {
	h := newHarness(t)
	rec := h.seedStamp(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		mu        sync.Mutex
		successes int
		failures  []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := h.svc.Submit(context.Background(), taro, correction.SubmitRequest{
				RecordID: strPtr(rec.ID), InTime: strPtr("09:00"), Reason: "race",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, workers-1)
	for _, err := range failures {
		assert.ErrorIs(t, err, correction.ErrDuplicatePending)
	}

	count, err := h.requests.CountPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestApprove_AppliesCorrectionToStamp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rec := h.seedStamp(t)

	submitted, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID),
		InTime:   strPtr("09:00"),
		OutTime:  strPtr("18:00"),
		Reason:   "badge reader failed at the gate",
	})
	require.NoError(t, err)

	approved, err := h.svc.Approve(ctx, admin, correction.ApproveRequest{
		ID:   submitted.ID,
		Note: strPtr("confirmed via access log"),
	})
	require.NoError(t, err)

	assert.Equal(t, "APPROVED", approved.Status)
	require.NotNil(t, approved.ApprovalNote)
	assert.Equal(t, "confirmed via access log", *approved.ApprovalNote)
	require.NotNil(t, approved.ApprovalEmployeeID)
	assert.Equal(t, adminID, *approved.ApprovalEmployeeID)
	require.NotNil(t, approved.ApprovalEmployeeName)
	assert.Equal(t, "Aiko Admin", *approved.ApprovalEmployeeName)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, fixedNow.Format(time.RFC3339), *approved.ApprovedAt)
	assert.Nil(t, approved.RejectedAt)

	// Snapshot is untouched by the decision
	require.NotNil(t, approved.Original.InTime)
	assert.Equal(t, "2024-03-14T09:10:00Z", *approved.Original.InTime)

	updated, err := h.records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, *at(stampDate, 9, 0), *updated.InTime)
	assert.Equal(t, *at(stampDate, 18, 0), *updated.OutTime)
	assert.Equal(t, *at(stampDate, 12, 0), *updated.BreakStartTime, "fields not requested keep their value")
	require.NotNil(t, updated.UpdateEmployee)
	assert.Equal(t, adminID, *updated.UpdateEmployee)
	require.NotNil(t, updated.UpdateDate)
	assert.Equal(t, fixedNow, *updated.UpdateDate)

	events := h.notifier.For(taroID)
	require.Len(t, events, 1)
	assert.Equal(t, submitted.ID, events[0].RequestID)
	assert.Equal(t, "APPROVED", events[0].Status)
	assert.Equal(t, "2024-03-14", events[0].Date)
}

func TestDecidedRequestsAreTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rec := h.seedStamp(t)

	submitted, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), InTime: strPtr("09:00"), Reason: "late badge",
	})
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, admin, correction.ApproveRequest{ID: submitted.ID})
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, admin, correction.ApproveRequest{ID: submitted.ID})
	assert.ErrorIs(t, err, correction.ErrInvalidState)

	_, err = h.svc.Reject(ctx, admin, correction.RejectRequest{ID: submitted.ID, Reason: "too late"})
	assert.ErrorIs(t, err, correction.ErrInvalidState)

	_, err = h.svc.Cancel(ctx, taro, correction.CancelRequest{ID: submitted.ID})
	assert.ErrorIs(t, err, correction.ErrInvalidState)

	stored, err := h.requests.FindByID(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusApproved, stored.Status)

	// The stamp has no pending request any more, so a new one is accepted
	resubmitted, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), OutTime: strPtr("18:30"), Reason: "left later than stamped",
	})
	require.NoError(t, err)
	assert.NotEqual(t, submitted.ID, resubmitted.ID)
	require.NotNil(t, resubmitted.Original.InTime)
	assert.Equal(t, "2024-03-14T09:00:00Z", *resubmitted.Original.InTime)
}

func TestApprove_CreatesMissingStamp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	submitted, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		Date:    strPtr("2024-03-15"),
		InTime:  strPtr("09:00"),
		OutTime: strPtr("17:30"),
		Reason:  "forgot my card",
	})
	require.NoError(t, err)
	require.Nil(t, submitted.RecordID)

	_, err = h.svc.Approve(ctx, admin, correction.ApproveRequest{ID: submitted.ID})
	require.NoError(t, err)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rec, err := h.records.GetByEmployeeAndDate(ctx, taroID, day)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, *at(day, 9, 0), *rec.InTime)
	assert.Equal(t, *at(day, 17, 30), *rec.OutTime)
	assert.Nil(t, rec.BreakStartTime)
}

func TestApprove_MovesOvernightOutTimeToNextDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	submitted, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		Date:         strPtr("2024-03-14"),
		InTime:       strPtr("22:00"),
		OutTime:      strPtr("06:00"),
		IsNightShift: func() *bool { b := true; return &b }(),
		Reason:       "night shift",
	})
	require.NoError(t, err)

	_, err = h.svc.Approve(ctx, admin, correction.ApproveRequest{ID: submitted.ID})
	require.NoError(t, err)

	rec, err := h.records.GetByEmployeeAndDate(ctx, taroID, stampDate)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, *at(stampDate, 22, 0), *rec.InTime)
	assert.Equal(t, *at(stampDate.AddDate(0, 0, 1), 6, 0), *rec.OutTime)
	require.NotNil(t, rec.IsNightShift)
	assert.True(t, *rec.IsNightShift)
}

func TestApprove_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submitted := h.submitOn(t, taro, "2024-03-14")

	_, err := h.svc.Approve(ctx, taro, correction.ApproveRequest{ID: submitted.ID})
	assert.ErrorIs(t, err, auth.ErrAdminRequired)

	_, err = h.svc.Approve(ctx, admin, correction.ApproveRequest{ID: 9999})
	assert.ErrorIs(t, err, correction.ErrRequestNotFound)

	stored, err := h.requests.FindByID(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusPending, stored.Status)
}

func TestReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rec := h.seedStamp(t)

	submitted, err := h.svc.Submit(ctx, taro, correction.SubmitRequest{
		RecordID: strPtr(rec.ID), InTime: strPtr("08:00"), Reason: "came in early",
	})
	require.NoError(t, err)

	_, err = h.svc.Reject(ctx, admin, correction.RejectRequest{ID: submitted.ID, Reason: " "})
	ve := requireValidationError(t, err)
	assert.Equal(t, "reason", ve[0].Field)

	_, err = h.svc.Reject(ctx, hanako, correction.RejectRequest{ID: submitted.ID, Reason: "no"})
	assert.ErrorIs(t, err, auth.ErrAdminRequired)

	rejected, err := h.svc.Reject(ctx, admin, correction.RejectRequest{ID: submitted.ID, Reason: "gate log shows 09:10"})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "gate log shows 09:10", *rejected.RejectionReason)
	require.NotNil(t, rejected.RejectionEmployeeName)
	assert.Equal(t, "Aiko Admin", *rejected.RejectionEmployeeName)
	assert.NotNil(t, rejected.RejectedAt)
	assert.Nil(t, rejected.ApprovedAt)

	unchanged, err := h.records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, *at(stampDate, 9, 10), *unchanged.InTime)
	assert.Nil(t, unchanged.UpdateEmployee)

	events := h.notifier.For(taroID)
	require.Len(t, events, 1)
	assert.Equal(t, "REJECTED", events[0].Status)
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submitted := h.submitOn(t, taro, "2024-03-14")

	_, err := h.svc.Cancel(ctx, hanako, correction.CancelRequest{ID: submitted.ID})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// Admins decide, they do not cancel on an employee's behalf
	_, err = h.svc.Cancel(ctx, admin, correction.CancelRequest{ID: submitted.ID})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = h.svc.Cancel(ctx, taro, correction.CancelRequest{ID: 9999})
	assert.ErrorIs(t, err, correction.ErrRequestNotFound)

	cancelled, err := h.svc.Cancel(ctx, taro, correction.CancelRequest{ID: submitted.ID, Reason: strPtr("   ")})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Nil(t, cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Nil(t, cancelled.ApprovalEmployeeID)
	assert.Nil(t, cancelled.RejectionEmployeeID)

	// The date is free again
	h.submitOn(t, taro, "2024-03-14")
}

func TestBulkApprove_PartialFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	valid := h.submitOn(t, taro, "2024-03-11")
	decided := h.submitOn(t, taro, "2024-03-12")
	_, err := h.svc.Approve(ctx, admin, correction.ApproveRequest{ID: decided.ID})
	require.NoError(t, err)

	result, err := h.svc.BulkApprove(ctx, admin, correction.BulkApproveRequest{
		IDs:  []int64{valid.ID, decided.ID, 9999},
		Note: strPtr("batch"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)
	assert.Equal(t, []correction.BulkFailure{
		{ID: decided.ID, Reason: correction.ErrInvalidState.Error()},
		{ID: 9999, Reason: correction.ErrRequestNotFound.Error()},
	}, result.Failures)

	stored, err := h.requests.FindByID(ctx, valid.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovalNote)
	assert.Equal(t, "batch", *stored.ApprovalNote)

	assert.Len(t, h.notifier.For(taroID), 2)
}

func TestBulkApprove_DuplicateIDsInBatch(t *testing.T) {
	h := newHarness(t)
	submitted := h.submitOn(t, taro, "2024-03-11")

	result, err := h.svc.BulkApprove(context.Background(), admin, correction.BulkApproveRequest{
		IDs: []int64{submitted.ID, submitted.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []correction.BulkFailure{
		{ID: submitted.ID, Reason: errDuplicateID.Error()},
	}, result.Failures)
}

func TestBulkApprove_ItemTimeoutDoesNotStopOthers(t *testing.T) {
	h := newHarness(t)
	slow := h.submitOn(t, taro, "2024-03-11")
	fast := h.submitOn(t, taro, "2024-03-12")

	h.requests.beforeLock = func(ctx context.Context, id int64) error {
		if id != slow.ID {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	}

	result, err := h.svc.BulkApprove(context.Background(), admin, correction.BulkApproveRequest{
		IDs: []int64{slow.ID, fast.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, []correction.BulkFailure{{ID: slow.ID, Reason: "timed out"}}, result.Failures)

	stored, err := h.requests.FindByID(context.Background(), slow.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusPending, stored.Status)
}

func TestBulkApprove_CallerGoneReportsCancelled(t *testing.T) {
	h := newHarness(t)
	first := h.submitOn(t, taro, "2024-03-11")
	second := h.submitOn(t, taro, "2024-03-12")

	h.requests.beforeLock = func(ctx context.Context, id int64) error {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.svc.BulkApprove(ctx, admin, correction.BulkApproveRequest{
		IDs: []int64{first.ID, second.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, []correction.BulkFailure{
		{ID: first.ID, Reason: "cancelled"},
		{ID: second.ID, Reason: "cancelled"},
	}, result.Failures)
	assert.Equal(t, "internal error", failureReason(first.ID, errors.New("connection reset")))
}

func TestBulk_FastFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	submitted := h.submitOn(t, taro, "2024-03-11")

	_, err := h.svc.BulkApprove(ctx, admin, correction.BulkApproveRequest{})
	requireValidationError(t, err)

	_, err = h.svc.BulkApprove(ctx, admin, correction.BulkApproveRequest{IDs: []int64{1, 2, 3, 4, 5, 6}})
	requireValidationError(t, err)

	_, err = h.svc.BulkApprove(ctx, taro, correction.BulkApproveRequest{IDs: []int64{submitted.ID}})
	assert.ErrorIs(t, err, auth.ErrAdminRequired)

	_, err = h.svc.BulkReject(ctx, admin, correction.BulkRejectRequest{IDs: []int64{submitted.ID}, Reason: ""})
	ve := requireValidationError(t, err)
	assert.Equal(t, "reason", ve[0].Field)

	stored, err := h.requests.FindByID(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusPending, stored.Status)
}

func TestBulkReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first := h.submitOn(t, taro, "2024-03-11")
	second := h.submitOn(t, hanako, "2024-03-11")

	result, err := h.svc.BulkReject(ctx, admin, correction.BulkRejectRequest{
		IDs:    []int64{first.ID, second.ID},
		Reason: "submitted after the payroll cutoff",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Empty(t, result.Failures)

	for _, id := range []int64{first.ID, second.ID} {
		stored, err := h.requests.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, correction.StatusRejected, stored.Status)
		require.NotNil(t, stored.RejectionReason)
		assert.Equal(t, "submitted after the payroll cutoff", *stored.RejectionReason)
	}
	assert.Len(t, h.notifier.For(hanakoID), 1)
}
