package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"github.com/cmlabs-hris/stamp-correction/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CorrectionHandler interface {
	// Employee
	Submit(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	CountMine(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)

	// Admin
	ListPending(w http.ResponseWriter, r *http.Request)
	CountPending(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	BulkApprove(w http.ResponseWriter, r *http.Request)
	BulkReject(w http.ResponseWriter, r *http.Request)
}

type CorrectionHandlerImpl struct {
	workflowService correction.WorkflowService
	queryService    correction.QueryService
}

func NewCorrectionHandler(workflowService correction.WorkflowService, queryService correction.QueryService) CorrectionHandler {
	return &CorrectionHandlerImpl{
		workflowService: workflowService,
		queryService:    queryService,
	}
}

// Submit implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req correction.SubmitRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.workflowService.Submit(ctx, auth.ActorFromContext(ctx), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Correction request submitted successfully", created)
}

// ListMine implements CorrectionHandler.
func (h *CorrectionHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := correction.MyRequestFilter{}

	// Status filter
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	// Pagination
	filter.Page = getIntQueryParam(r, "page", 1)
	filter.Limit = getIntQueryParam(r, "limit", 20)

	list, err := h.queryService.ListMine(ctx, auth.ActorFromContext(ctx), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, list)
}

// CountMine implements CorrectionHandler.
func (h *CorrectionHandlerImpl) CountMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}

	count, err := h.queryService.CountMine(ctx, auth.ActorFromContext(ctx), status)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, count)
}

// Get implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}

	detail, err := h.queryService.Get(ctx, auth.ActorFromContext(ctx), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, detail)
}

// Cancel implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}

	var req correction.CancelRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	req.ID = id

	cancelled, err := h.workflowService.Cancel(ctx, auth.ActorFromContext(ctx), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction request cancelled successfully", cancelled)
}

// ListPending implements CorrectionHandler.
func (h *CorrectionHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := correction.PendingRequestFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}
	if search := r.URL.Query().Get("search"); search != "" {
		filter.Search = &search
	}
	filter.Sort = r.URL.Query().Get("sort")

	// Pagination
	filter.Page = getIntQueryParam(r, "page", 1)
	filter.Limit = getIntQueryParam(r, "limit", 20)

	list, err := h.queryService.ListForModeration(ctx, auth.ActorFromContext(ctx), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, list)
}

// CountPending implements CorrectionHandler.
func (h *CorrectionHandlerImpl) CountPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.queryService.CountPending(ctx, auth.ActorFromContext(ctx))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, count)
}

// Approve implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}

	var req correction.ApproveRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}
	req.ID = id

	approved, err := h.workflowService.Approve(ctx, auth.ActorFromContext(ctx), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction request approved successfully", approved)
}

// Reject implements CorrectionHandler.
func (h *CorrectionHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := requestIDParam(w, r)
	if !ok {
		return
	}

	var req correction.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Reject decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = id

	rejected, err := h.workflowService.Reject(ctx, auth.ActorFromContext(ctx), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction request rejected successfully", rejected)
}

// BulkApprove implements CorrectionHandler.
func (h *CorrectionHandlerImpl) BulkApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req correction.BulkApproveRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("BulkApprove decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.workflowService.BulkApprove(ctx, auth.ActorFromContext(ctx), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// BulkReject implements CorrectionHandler.
func (h *CorrectionHandlerImpl) BulkReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req correction.BulkRejectRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("BulkReject decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.workflowService.BulkReject(ctx, auth.ActorFromContext(ctx), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func requestIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid correction request ID", nil)
		return 0, false
	}
	return id, true
}

// decodeOptionalBody accepts an empty body for endpoints whose fields are all optional.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Request decode error", "path", r.URL.Path, "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}
