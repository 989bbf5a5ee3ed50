package service

import (
	"errors"
	"fmt"
)

var (
	ErrNoEvaluations   = errors.New("no evaluations found")
	ErrStorageFailure  = errors.New("storage failure")
	ErrSinkUnavailable = errors.New("output sink unavailable")
	ErrAllWritesFailed = errors.New("every output write failed")
	ErrUnauthorized    = errors.New("administrator authentication required")
)

// InputError describes an evaluation row that was left out of the run.
type InputError struct {
	RowID     int64  `json:"row_id"`
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

func (e InputError) Error() string {
	return fmt.Sprintf("evaluation %d (student %s): %s", e.RowID, e.StudentID, e.Reason)
}

// WriteError records one container or document the sink did not accept.
type WriteError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (e WriteError) Error() string {
	return fmt.Sprintf("write %s: %s", e.Path, e.Reason)
}
