package mocks

import (
	"context"
	"errors"

	"github.com/godilite/evalreport/internal/repository/models"
)

// MockEvaluationRepository is a mock implementation of the EvaluationRepository interface
// for testing the service layer.
type MockEvaluationRepository struct {
	ListEvaluationsFunc func(ctx context.Context) ([]models.EvaluationRow, error)
}

// ListEvaluations implements the EvaluationRepository interface
func (m *MockEvaluationRepository) ListEvaluations(ctx context.Context) ([]models.EvaluationRow, error) {
	if m.ListEvaluationsFunc != nil {
		return m.ListEvaluationsFunc(ctx)
	}
	return nil, errors.New("ListEvaluationsFunc not implemented")
}
