package correction

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/validator"
)

const maxReasonLength = 1000

// Pagination bounds
const (
	defaultPage  = 1
	maxPage      = 100000
	defaultLimit = 20
	maxLimit     = 100
)

type SubmitRequest struct {
	RecordID       *string `json:"stamp_history_id,omitempty"`
	Date           *string `json:"stamp_date,omitempty"`       // YYYY-MM-DD
	InTime         *string `json:"in_time,omitempty"`          // HH:MM, HH:MM:SS or RFC3339
	OutTime        *string `json:"out_time,omitempty"`         // HH:MM, HH:MM:SS or RFC3339
	BreakStartTime *string `json:"break_start_time,omitempty"` // HH:MM, HH:MM:SS or RFC3339
	BreakEndTime   *string `json:"break_end_time,omitempty"`   // HH:MM, HH:MM:SS or RFC3339
	IsNightShift   *bool   `json:"is_night_shift,omitempty"`
	Reason         string  `json:"reason"`
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	// Target
	hasRecord := r.RecordID != nil && !validator.IsEmpty(*r.RecordID)
	hasDate := r.Date != nil && !validator.IsEmpty(*r.Date)
	if !hasRecord && !hasDate {
		errs = append(errs, validator.ValidationError{
			Field:   "stamp_history_id",
			Message: "either stamp_history_id or stamp_date is required",
		})
	}
	if hasRecord && !validator.IsValidUUID(*r.RecordID) {
		errs = append(errs, validator.ValidationError{
			Field:   "stamp_history_id",
			Message: "stamp_history_id must be a valid UUID",
		})
	}
	if hasDate {
		if _, valid := validator.IsValidDate(*r.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "stamp_date",
				Message: "stamp_date must be in YYYY-MM-DD format",
			})
		}
	}

	// Requested values
	if isBlank(r.InTime) && isBlank(r.OutTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "in_time",
			Message: "at least one of in_time or out_time is required",
		})
	}
	if isBlank(r.BreakStartTime) != isBlank(r.BreakEndTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_end_time",
			Message: "break_start_time and break_end_time must be given together",
		})
	}

	// Reason
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if utf8.RuneCountInString(r.Reason) > maxReasonLength {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("reason must not exceed %d characters", maxReasonLength),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func isBlank(s *string) bool {
	return s == nil || validator.IsEmpty(*s)
}

type ApproveRequest struct {
	ID   int64   `json:"-"`
	Note *string `json:"note,omitempty"`
}

type RejectRequest struct {
	ID     int64  `json:"-"`
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if utf8.RuneCountInString(r.Reason) > maxReasonLength {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("reason must not exceed %d characters", maxReasonLength),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CancelRequest struct {
	ID     int64   `json:"-"`
	Reason *string `json:"reason,omitempty"`
}

type BulkApproveRequest struct {
	IDs  []int64 `json:"ids"`
	Note *string `json:"note,omitempty"`
}

func (r *BulkApproveRequest) Validate(maxIDs int) error {
	errs := validateIDs(r.IDs, maxIDs)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type BulkRejectRequest struct {
	IDs    []int64 `json:"ids"`
	Reason string  `json:"reason"`
}

func (r *BulkRejectRequest) Validate(maxIDs int) error {
	errs := validateIDs(r.IDs, maxIDs)

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateIDs(ids []int64, maxIDs int) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if len(ids) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "ids",
			Message: "ids must not be empty",
		})
	}
	if len(ids) > maxIDs {
		errs = append(errs, validator.ValidationError{
			Field:   "ids",
			Message: fmt.Sprintf("ids must not contain more than %d items", maxIDs),
		})
	}

	return errs
}

// Sort orders accepted by the moderation queue
const (
	SortRecent = "recent"
	SortOldest = "oldest"
	SortStatus = "status"
)

type MyRequestFilter struct {
	Status *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *MyRequestFilter) Validate() error {
	errs := validatePagination(&f.Page, &f.Limit)
	errs = append(errs, validateStatus(f.Status)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PendingRequestFilter struct {
	Status *string `json:"status,omitempty"` // defaults to PENDING
	Search *string `json:"search,omitempty"` // reason, request id or employee name
	Sort   string  `json:"sort"`             // recent, oldest, status

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *PendingRequestFilter) Validate() error {
	errs := validatePagination(&f.Page, &f.Limit)
	errs = append(errs, validateStatus(f.Status)...)

	if f.Status == nil {
		pending := string(StatusPending)
		f.Status = &pending
	}

	if f.Search != nil {
		trimmed := strings.TrimSpace(*f.Search)
		if trimmed == "" {
			f.Search = nil
		} else {
			f.Search = &trimmed
		}
	}

	// Sort validation
	if f.Sort != "" {
		validSorts := []string{SortRecent, SortOldest, SortStatus}
		if !validator.IsInSlice(f.Sort, validSorts) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort",
				Message: "sort must be one of: recent, oldest, status",
			})
		}
	} else {
		f.Sort = SortRecent // Default newest first
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validatePagination(page, limit *int) validator.ValidationErrors {
	var errs validator.ValidationErrors

	// Page validation
	if *page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = defaultPage
	}
	if *page > maxPage {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: fmt.Sprintf("page must not exceed %d", maxPage),
		})
	}

	// Limit validation
	if *limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = defaultLimit
	}
	if *limit > maxLimit {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must not exceed %d", maxLimit),
		})
	}

	return errs
}

func validateStatus(status *string) validator.ValidationErrors {
	if status == nil {
		return nil
	}
	if _, err := ParseStatus(*status); err != nil {
		return validator.ValidationErrors{{
			Field:   "status",
			Message: "status must be one of: PENDING, APPROVED, REJECTED, CANCELLED",
		}}
	}
	return nil
}

type ValuesResponse struct {
	InTime         *string `json:"in_time"`
	OutTime        *string `json:"out_time"`
	BreakStartTime *string `json:"break_start_time"`
	BreakEndTime   *string `json:"break_end_time"`
	IsNightShift   *bool   `json:"is_night_shift"`
}

type RequestResponse struct {
	ID             int64          `json:"id"`
	EmployeeID     string         `json:"employee_id"`
	EmployeeName   string         `json:"employee_name"`
	RecordID       *string        `json:"stamp_history_id"`
	Date           string         `json:"stamp_date"`
	Status         string         `json:"status"`
	Original       ValuesResponse `json:"original"`
	Requested      ValuesResponse `json:"requested"`
	Reason         string         `json:"reason"`

	ApprovalNote          *string `json:"approval_note"`
	RejectionReason       *string `json:"rejection_reason"`
	CancellationReason    *string `json:"cancellation_reason"`
	ApprovalEmployeeID    *string `json:"approval_employee_id"`
	ApprovalEmployeeName  *string `json:"approval_employee_name"`
	RejectionEmployeeID   *string `json:"rejection_employee_id"`
	RejectionEmployeeName *string `json:"rejection_employee_name"`

	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	ApprovedAt  *string `json:"approved_at"`
	RejectedAt  *string `json:"rejected_at"`
	CancelledAt *string `json:"cancelled_at"`
}

type ListRequestResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Requests   []RequestResponse `json:"requests"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type BulkFailure struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports a bulk decision. Failures keep the order of the input ids.
type BulkResult struct {
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	Failures     []BulkFailure `json:"failures"`
}

// ToResponse maps a request to its wire form. names resolves employee ids to
// display names; missing entries leave the name empty.
func ToResponse(r Request, names map[string]string) RequestResponse {
	resp := RequestResponse{
		ID:                  r.ID,
		EmployeeID:          r.EmployeeID,
		EmployeeName:        names[r.EmployeeID],
		RecordID:            r.RecordID,
		Date:                r.Date.Format("2006-01-02"),
		Status:              r.Status.String(),
		Original:            toValuesResponse(r.Original),
		Requested:           toValuesResponse(r.Requested),
		Reason:              r.Reason,
		ApprovalNote:        r.ApprovalNote,
		RejectionReason:     r.RejectionReason,
		CancellationReason:  r.CancellationReason,
		ApprovalEmployeeID:  r.ApprovalEmployeeID,
		RejectionEmployeeID: r.RejectionEmployeeID,
		CreatedAt:           r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           r.UpdatedAt.Format(time.RFC3339),
		ApprovedAt:          formatTime(r.ApprovedAt),
		RejectedAt:          formatTime(r.RejectedAt),
		CancelledAt:         formatTime(r.CancelledAt),
	}
	resp.ApprovalEmployeeName = lookupName(names, r.ApprovalEmployeeID)
	resp.RejectionEmployeeName = lookupName(names, r.RejectionEmployeeID)
	return resp
}

// EmployeeIDs returns every employee id referenced by the requests, without duplicates.
func EmployeeIDs(requests ...Request) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id *string) {
		if id == nil || *id == "" {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for i := range requests {
		add(&requests[i].EmployeeID)
		add(requests[i].ApprovalEmployeeID)
		add(requests[i].RejectionEmployeeID)
	}
	return ids
}

func toValuesResponse(v attendance.Values) ValuesResponse {
	return ValuesResponse{
		InTime:         formatTime(v.InTime),
		OutTime:        formatTime(v.OutTime),
		BreakStartTime: formatTime(v.BreakStartTime),
		BreakEndTime:   formatTime(v.BreakEndTime),
		IsNightShift:   v.IsNightShift,
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func lookupName(names map[string]string, id *string) *string {
	if id == nil {
		return nil
	}
	name, ok := names[*id]
	if !ok {
		return nil
	}
	return &name
}
