package service

import (
	"context"

	"github.com/godilite/evalreport/internal/repository/models"
)

// EvaluationRepository defines the read the service needs from the evaluation store.
type EvaluationRepository interface {
	ListEvaluations(ctx context.Context) ([]models.EvaluationRow, error)
}

// Notifier is told about every run that got as far as writing output.
type Notifier interface {
	NotifyRun(ctx context.Context, summary RunSummary) error
}
