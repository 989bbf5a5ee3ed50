package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/godilite/evalreport/internal/evaluation"
	"github.com/godilite/evalreport/internal/repository/models"
)

type EvaluationRepository struct {
	db *sql.DB
}

func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

var listEvaluationsQuery = buildListQuery()

// buildListQuery selects every evaluation with its teacher's display name.
// It has no bind parameters, so the same text runs on sqlite, mysql and postgres.
func buildListQuery() string {
	cols := evaluation.ItemColumns()
	for i, c := range cols {
		cols[i] = "e." + c
	}
	return `
		SELECT
			e.id,
			e.student_id,
			e.student_name,
			t.name AS teacher_name,
			e.subject,
			e.section,
			e.program,
			` + strings.Join(cols, ", ") + `,
			e.positive_comments,
			e.negative_comments,
			e.submitted_at
		FROM evaluations AS e
		JOIN teachers AS t ON e.teacher_id = t.id
		ORDER BY t.name, e.section, e.program, e.student_name, e.id
	`
}

// ListEvaluations reads the whole evaluation set in one query.
func (r *EvaluationRepository) ListEvaluations(ctx context.Context) ([]models.EvaluationRow, error) {
	rows, err := r.db.QueryContext(ctx, listEvaluationsQuery)
	if err != nil {
		return nil, fmt.Errorf("query ListEvaluations: %w", err)
	}
	defer rows.Close()

	var results []models.EvaluationRow
	for rows.Next() {
		var e models.EvaluationRow
		dest := make([]any, 0, 7+len(e.Scores)+3)
		dest = append(dest, &e.ID, &e.StudentID, &e.StudentName, &e.TeacherName, &e.Subject, &e.Section, &e.Program)
		for i := range e.Scores {
			dest = append(dest, &e.Scores[i])
		}
		dest = append(dest, &e.PositiveComments, &e.NegativeComments, &e.SubmittedAt)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan ListEvaluations row: %w", err)
		}
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListEvaluations: %w", err)
	}
	return results, nil
}
