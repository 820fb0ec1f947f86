package correction

import (
	"context"
	"fmt"
	"math"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/auth"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/employee"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/validator"
)

type QueryServiceImpl struct {
	requests  correction.Repository
	employees employee.EmployeeRepository
}

// Get implements correction.QueryService.
func (s *QueryServiceImpl) Get(ctx context.Context, actor auth.Actor, id int64) (correction.RequestResponse, error) {
	if err := actor.Authenticated(); err != nil {
		return correction.RequestResponse{}, err
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return correction.RequestResponse{}, err
	}
	if !actor.CanView(req.EmployeeID) {
		return correction.RequestResponse{}, auth.ErrForbidden
	}

	names, err := s.employees.GetNames(ctx, correction.EmployeeIDs(req))
	if err != nil {
		return correction.RequestResponse{}, fmt.Errorf("failed to resolve employee names: %w", err)
	}

	return correction.ToResponse(req, names), nil
}

// ListMine implements correction.QueryService.
func (s *QueryServiceImpl) ListMine(ctx context.Context, actor auth.Actor, filter correction.MyRequestFilter) (correction.ListRequestResponse, error) {
	if err := actor.Authenticated(); err != nil {
		return correction.ListRequestResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return correction.ListRequestResponse{}, err
	}

	requests, totalCount, err := s.requests.ListByEmployee(ctx, actor.EmployeeID, filter)
	if err != nil {
		return correction.ListRequestResponse{}, fmt.Errorf("failed to list correction requests: %w", err)
	}

	return s.toListResponse(ctx, requests, totalCount, filter.Page, filter.Limit)
}

// ListForModeration implements correction.QueryService.
func (s *QueryServiceImpl) ListForModeration(ctx context.Context, actor auth.Actor, filter correction.PendingRequestFilter) (correction.ListRequestResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return correction.ListRequestResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return correction.ListRequestResponse{}, err
	}

	requests, totalCount, err := s.requests.ListPending(ctx, filter)
	if err != nil {
		return correction.ListRequestResponse{}, fmt.Errorf("failed to list correction requests: %w", err)
	}

	return s.toListResponse(ctx, requests, totalCount, filter.Page, filter.Limit)
}

// CountMine implements correction.QueryService.
func (s *QueryServiceImpl) CountMine(ctx context.Context, actor auth.Actor, status *string) (correction.CountResponse, error) {
	if err := actor.Authenticated(); err != nil {
		return correction.CountResponse{}, err
	}

	var parsed *correction.Status
	if status != nil && *status != "" {
		st, err := correction.ParseStatus(*status)
		if err != nil {
			return correction.CountResponse{}, validator.ValidationErrors{{
				Field:   "status",
				Message: "status must be one of: PENDING, APPROVED, REJECTED, CANCELLED",
			}}
		}
		parsed = &st
	}

	count, err := s.requests.CountByEmployee(ctx, actor.EmployeeID, parsed)
	if err != nil {
		return correction.CountResponse{}, err
	}
	return correction.CountResponse{Count: count}, nil
}

// CountPending implements correction.QueryService.
func (s *QueryServiceImpl) CountPending(ctx context.Context, actor auth.Actor) (correction.CountResponse, error) {
	if err := actor.RequireAdmin(); err != nil {
		return correction.CountResponse{}, err
	}

	count, err := s.requests.CountPending(ctx)
	if err != nil {
		return correction.CountResponse{}, err
	}
	return correction.CountResponse{Count: count}, nil
}

func (s *QueryServiceImpl) toListResponse(ctx context.Context, requests []correction.Request, totalCount int64, page, limit int) (correction.ListRequestResponse, error) {
	names, err := s.employees.GetNames(ctx, correction.EmployeeIDs(requests...))
	if err != nil {
		return correction.ListRequestResponse{}, fmt.Errorf("failed to resolve employee names: %w", err)
	}

	responses := make([]correction.RequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, correction.ToResponse(req, names))
	}

	// Calculate pagination metadata
	totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))

	// Calculate "showing" text
	start := (page-1)*limit + 1
	end := start + len(responses) - 1
	if end > int(totalCount) {
		end = int(totalCount)
	}

	showing := fmt.Sprintf("%d-%d of %d results", start, end, totalCount)
	if totalCount == 0 || len(responses) == 0 {
		showing = fmt.Sprintf("0 of %d results", totalCount)
	}

	return correction.ListRequestResponse{
		TotalCount: totalCount,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Showing:    showing,
		Requests:   responses,
	}, nil
}

func NewQueryService(requestRepo correction.Repository, employeeRepo employee.EmployeeRepository) correction.QueryService {
	return &QueryServiceImpl{
		requests:  requestRepo,
		employees: employeeRepo,
	}
}
