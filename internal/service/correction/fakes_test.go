package correction

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/domain/attendance"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/correction"
	"github.com/cmlabs-hris/stamp-correction/internal/domain/employee"
	"github.com/google/uuid"
)

// memRequests mirrors stamp_request, including both partial unique indexes.
// Every method holds the mutex for its whole body, so the pending check and the
// write in Insert are one atomic step, as the database index makes them.
type memRequests struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]correction.Request
	names  map[string]string

	// beforeLock runs ahead of FindByIDForUpdate, outside the mutex
	beforeLock func(ctx context.Context, id int64) error
}

func newMemRequests(names map[string]string) *memRequests {
	return &memRequests{rows: make(map[int64]correction.Request), names: names}
}

// pendingClash mirrors the pending unique indexes: one open request per
// stamp and one per employee and day.
func pendingClash(a, b correction.Request) bool {
	if a.EmployeeID != b.EmployeeID {
		return false
	}
	if a.RecordID != nil && b.RecordID != nil && *a.RecordID == *b.RecordID {
		return true
	}
	return a.Date.Format("2006-01-02") == b.Date.Format("2006-01-02")
}

func (m *memRequests) Insert(ctx context.Context, request correction.Request) (correction.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if request.Status == correction.StatusPending {
		for _, row := range m.rows {
			if row.Status == correction.StatusPending && pendingClash(row, request) {
				return correction.Request{}, fmt.Errorf("%w: duplicate key value violates unique constraint", correction.ErrConflict)
			}
		}
	}

	m.nextID++
	request.ID = m.nextID
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}
	request.UpdatedAt = request.CreatedAt
	m.rows[request.ID] = request
	return request, nil
}

func (m *memRequests) FindByID(ctx context.Context, id int64) (correction.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok {
		return correction.Request{}, correction.ErrRequestNotFound
	}
	return row, nil
}

func (m *memRequests) FindByIDForUpdate(ctx context.Context, id int64) (correction.Request, error) {
	if m.beforeLock != nil {
		if err := m.beforeLock(ctx, id); err != nil {
			return correction.Request{}, err
		}
	}
	return m.FindByID(ctx, id)
}

func (m *memRequests) FindPendingFor(ctx context.Context, employeeID string, target correction.Target) (*correction.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := correction.Request{EmployeeID: employeeID, RecordID: target.RecordID, Date: target.Date}
	for _, row := range m.rows {
		if row.Status == correction.StatusPending && pendingClash(row, want) {
			found := row
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memRequests) UpdateStatus(ctx context.Context, id int64, from correction.Status, d correction.Decision) (correction.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.rows[id]
	if !ok {
		return correction.Request{}, correction.ErrRequestNotFound
	}
	if row.Status != from {
		return correction.Request{}, correction.ErrInvalidState
	}
	d.Apply(&row)
	m.rows[id] = row
	return row, nil
}

func (m *memRequests) sorted(match func(correction.Request) bool, less func(a, b correction.Request) bool) []correction.Request {
	var out []correction.Request
	for _, row := range m.rows {
		if match(row) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirst(a, b correction.Request) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func page(rows []correction.Request, page, limit int) []correction.Request {
	start := (page - 1) * limit
	if start >= len(rows) {
		return nil
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func (m *memRequests) ListByEmployee(ctx context.Context, employeeID string, filter correction.MyRequestFilter) ([]correction.Request, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.sorted(func(r correction.Request) bool {
		return r.EmployeeID == employeeID && (filter.Status == nil || string(r.Status) == *filter.Status)
	}, newestFirst)
	return page(rows, filter.Page, filter.Limit), int64(len(rows)), nil
}

func (m *memRequests) ListPending(ctx context.Context, filter correction.PendingRequestFilter) ([]correction.Request, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	match := func(r correction.Request) bool {
		if filter.Status != nil && string(r.Status) != *filter.Status {
			return false
		}
		if filter.Search == nil {
			return true
		}
		term := strings.ToLower(*filter.Search)
		return strings.Contains(strings.ToLower(r.Reason), term) ||
			strings.Contains(strings.ToLower(m.names[r.EmployeeID]), term) ||
			strconv.FormatInt(r.ID, 10) == *filter.Search
	}

	less := newestFirst
	switch filter.Sort {
	case correction.SortOldest:
		less = func(a, b correction.Request) bool { return newestFirst(b, a) }
	case correction.SortStatus:
		less = func(a, b correction.Request) bool {
			if a.Status != b.Status {
				return a.Status < b.Status
			}
			return newestFirst(a, b)
		}
	}

	rows := m.sorted(match, less)
	return page(rows, filter.Page, filter.Limit), int64(len(rows)), nil
}

func (m *memRequests) CountByEmployee(ctx context.Context, employeeID string, status *correction.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, row := range m.rows {
		if row.EmployeeID == employeeID && (status == nil || row.Status == *status) {
			n++
		}
	}
	return n, nil
}

func (m *memRequests) CountPending(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, row := range m.rows {
		if row.Status == correction.StatusPending {
			n++
		}
	}
	return n, nil
}

func (m *memRequests) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

// memRecords mirrors stamp_history with its (employee_id, stamp_date) unique key.
type memRecords struct {
	mu   sync.Mutex
	rows map[string]attendance.Record
}

func newMemRecords() *memRecords {
	return &memRecords{rows: make(map[string]attendance.Record)}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (m *memRecords) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.rows[id]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return rec, nil
}

func (m *memRecords) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.rows {
		if rec.EmployeeID == employeeID && sameDay(rec.Date, date) {
			found := rec
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memRecords) Create(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.rows {
		if rec.EmployeeID == record.EmployeeID && sameDay(rec.Date, record.Date) {
			return attendance.Record{}, attendance.ErrRecordExists
		}
	}
	record.ID = uuid.NewString()
	record.CreatedAt = time.Now()
	m.rows[record.ID] = record
	return record, nil
}

func (m *memRecords) Update(ctx context.Context, record attendance.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[record.ID]; !ok {
		return attendance.ErrRecordNotFound
	}
	m.rows[record.ID] = record
	return nil
}

func (m *memRecords) ListByEmployeeRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []attendance.Record
	for _, rec := range m.rows {
		if rec.EmployeeID == employeeID && !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memRecords) seed(t *testing.T, rec attendance.Record) attendance.Record {
	t.Helper()
	created, err := m.Create(context.Background(), rec)
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return created
}

type memEmployees struct {
	employees map[string]employee.Employee
}

func (m *memEmployees) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *memEmployees) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, id := range ids {
		if e, ok := m.employees[id]; ok {
			names[id] = e.FullName
		}
	}
	return names, nil
}

// serialTx stands in for the row lock FindByIDForUpdate takes in Postgres.
type serialTx struct {
	mu sync.Mutex
}

func (s *serialTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]correction.DecisionEvent
}

func (n *recordingNotifier) NotifyDecision(employeeID string, event correction.DecisionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = make(map[string][]correction.DecisionEvent)
	}
	n.events[employeeID] = append(n.events[employeeID], event)
}

func (n *recordingNotifier) For(employeeID string) []correction.DecisionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]correction.DecisionEvent(nil), n.events[employeeID]...)
}
