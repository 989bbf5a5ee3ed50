package mocks

import (
	"context"
	"errors"

	"github.com/godilite/evalreport/internal/service"
)

// MockReportGenerator is a mock implementation of the ReportGenerator interface.
type MockReportGenerator struct {
	GenerateFunc func(ctx context.Context, admin service.Admin) (service.RunSummary, error)
}

// Generate implements the ReportGenerator interface
func (m *MockReportGenerator) Generate(ctx context.Context, admin service.Admin) (service.RunSummary, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, admin)
	}
	return service.RunSummary{}, errors.New("GenerateFunc not implemented")
}
