package mocks

import (
	"context"

	"github.com/godilite/evalreport/internal/service"
)

// MockNotifier is a mock implementation of the Notifier interface.
type MockNotifier struct {
	NotifyRunFunc func(ctx context.Context, summary service.RunSummary) error
}

// NotifyRun implements the Notifier interface
func (m *MockNotifier) NotifyRun(ctx context.Context, summary service.RunSummary) error {
	if m.NotifyRunFunc != nil {
		return m.NotifyRunFunc(ctx, summary)
	}
	return nil
}
