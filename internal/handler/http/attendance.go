package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/handler/http/response"
)

type AttendanceHandler interface {
	Summary(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	summaryService attendance.SummaryService
	now            func() time.Time
}

func NewAttendanceHandler(summaryService attendance.SummaryService) AttendanceHandler {
	return &attendanceHandlerImpl{
		summaryService: summaryService,
		now:            time.Now,
	}
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := attendance.SummaryRequest{
		EmployeeID: r.URL.Query().Get("employee_id"),
	}

	summary, err := h.summaryService.TrailingSummaries(ctx, auth.ActorFromContext(ctx), req, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, summary)
}
