package operations

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is a lifecycle action recorded in a Report.
type Action string

const (
	ActionExecute Action = "execute"
	ActionRevert  Action = "revert"
	ActionCleanup Action = "cleanup"
)

// Report is the record of one lifecycle action of an operation.
// For cleanup reports, Err holds the first error that was suppressed.
type Report struct {
	ID          string        `json:"id"`
	OperationID string        `json:"operationId"`
	Operation   string        `json:"operation"`
	Action      Action        `json:"action"`
	Timestamp   *time.Time    `json:"timestamp"`
	Duration    time.Duration `json:"duration"`
	// Executed is the state of the operation once the action returned.
	// A failed validation leaves an operation executed even though Err is set.
	Executed bool         `json:"executed"`
	Err      *ReportError `json:"error"`
}

// NewReport creates a new report.
func NewReport(
	operationID, operation string, action Action, executed bool, duration time.Duration, err error,
) Report {
	now := time.Now()
	r := Report{
		ID:          uuid.New().String(),
		OperationID: operationID,
		Operation:   operation,
		Action:      action,
		Timestamp:   &now,
		Duration:    duration,
		Executed:    executed,
	}
	if err != nil {
		r.Err = &ReportError{Message: err.Error()}
	}

	return r
}

// ReportError represents an error in the Report.
// Its purpose is to have an exported field `Message` for marshalling as the
// native error cant be marshaled to JSON.
type ReportError struct {
	Message string `json:"message"`
}

// Error implements the error interface.
func (o ReportError) Error() string {
	return o.Message
}

var ErrReportNotFound = errors.New("report not found")

// Reporter collects the reports of lifecycle actions. Implementations must be
// safe for concurrent use.
type Reporter interface {
	GetReport(id string) (Report, error)
	GetReports() ([]Report, error)
	AddReport(report Report) error
}

// MemoryReporter stores reports in memory.
// This is thread-safe and can be used in a multi-threaded environment.
type MemoryReporter struct {
	reports []Report
	mu      sync.RWMutex
}

type MemoryReporterOption func(*MemoryReporter)

// WithReports is an option to initialize the MemoryReporter with a list of reports.
func WithReports(reports []Report) MemoryReporterOption {
	return func(mr *MemoryReporter) {
		mr.reports = reports
	}
}

// NewMemoryReporter creates a new MemoryReporter.
// It can be initialized with a list of reports using the WithReports option.
func NewMemoryReporter(options ...MemoryReporterOption) *MemoryReporter {
	reporter := &MemoryReporter{}
	for _, opt := range options {
		opt(reporter)
	}

	return reporter
}

// AddReport adds a report to the memory reporter.
func (e *MemoryReporter) AddReport(report Report) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reports = append(e.reports, report)

	return nil
}

// GetReports returns all reports in the order they were added.
func (e *MemoryReporter) GetReports() ([]Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	// Create a copy to avoid data races after returning
	return slices.Clone(e.reports), nil
}

// GetReport returns a report by ID.
// Returns ErrReportNotFound if the report is not found.
func (e *MemoryReporter) GetReport(id string) (Report, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, report := range e.reports {
		if report.ID == id {
			return report, nil
		}
	}

	return Report{}, fmt.Errorf("report_id %s: %w", id, ErrReportNotFound)
}

// Outstanding returns the IDs of the operations whose last report left them
// executed. These are the fixtures that leaked, e.g. because a cleanup failed
// to revert them or was never called. IDs are returned in the order the
// operations were first reported.
func Outstanding(reports []Report) []string {
	var order []string
	executed := make(map[string]bool)
	for _, r := range reports {
		if _, seen := executed[r.OperationID]; !seen {
			order = append(order, r.OperationID)
		}
		executed[r.OperationID] = r.Executed
	}

	var out []string
	for _, id := range order {
		if executed[id] {
			out = append(out, id)
		}
	}

	return out
}
