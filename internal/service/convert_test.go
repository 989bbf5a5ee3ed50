package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/evalreport/internal/evaluation"
	"github.com/godilite/evalreport/internal/repository/models"
)

func text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func validRow() models.EvaluationRow {
	r := models.EvaluationRow{
		ID:               7,
		StudentID:        text(" S1 "),
		StudentName:      text("Ana Reyes"),
		TeacherName:      text("Ms. Santos "),
		Section:          text("11-A"),
		Program:          text("shs"),
		NegativeComments: text("late"),
		SubmittedAt:      models.Timestamp{Time: time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), Valid: true},
	}
	for i := range r.Scores {
		r.Scores[i] = models.Score{Int64: 4, Valid: true}
	}
	return r
}

func TestToRecord(t *testing.T) {
	rec, err := toRecord(validRow())
	require.NoError(t, err)

	assert.Equal(t, "S1", rec.StudentID)
	assert.Equal(t, evaluation.TeacherID("Ms. Santos"), rec.Teacher)
	assert.Equal(t, evaluation.ProgramSHS, rec.Program)
	assert.Equal(t, 80, rec.Scores.Sum())
	assert.Equal(t, "", rec.PositiveComments)
	assert.Equal(t, "late", rec.NegativeComments)
}

func TestToRecord_NullSubmissionTime(t *testing.T) {
	r := validRow()
	r.SubmittedAt = models.Timestamp{}

	rec, err := toRecord(r)
	require.NoError(t, err)
	assert.True(t, rec.SubmittedAt.IsZero())
}

func TestToRecord_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.EvaluationRow)
		reason string
	}{
		{"null score", func(r *models.EvaluationRow) { r.Scores[19] = models.Score{} }, "score Q4.6 is missing"},
		{"text score", func(r *models.EvaluationRow) { r.Scores[2] = models.Score{Raw: "n/a"} }, `score Q1.3 is not a whole number: "n/a"`},
		{"score out of range", func(r *models.EvaluationRow) { r.Scores[0].Int64 = 6 }, "max"},
		{"zero score", func(r *models.EvaluationRow) { r.Scores[3].Int64 = 0 }, "min"},
		{"unknown program", func(r *models.EvaluationRow) { r.Program = text("MBA") }, "unknown program"},
		{"blank teacher", func(r *models.EvaluationRow) { r.TeacherName = text("  ") }, "Teacher"},
		{"blank section", func(r *models.EvaluationRow) { r.Section = text("") }, "Section"},
		{"null student id", func(r *models.EvaluationRow) { r.StudentID = sql.NullString{} }, "student id is missing"},
		{"null student name", func(r *models.EvaluationRow) { r.StudentName = sql.NullString{} }, "student name is missing"},
		{"null section", func(r *models.EvaluationRow) { r.Section = sql.NullString{} }, "section is missing"},
		{"null program", func(r *models.EvaluationRow) { r.Program = sql.NullString{} }, "program is missing"},
		{"unknown time layout", func(r *models.EvaluationRow) { r.SubmittedAt = models.Timestamp{Raw: "14/02/2025"} }, `unrecognised submission time "14/02/2025"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRow()
			tt.mutate(&r)
			_, err := toRecord(r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestToRecords(t *testing.T) {
	bad := validRow()
	bad.ID = 8
	bad.Scores[0] = models.Score{}

	noID := validRow()
	noID.ID = 9
	noID.StudentID = sql.NullString{}

	records, skipped := toRecords([]models.EvaluationRow{validRow(), bad, noID})
	assert.Len(t, records, 1)
	require.Len(t, skipped, 2)
	assert.Equal(t, int64(8), skipped[0].RowID)
	assert.Equal(t, "S1", skipped[0].StudentID)
	assert.Contains(t, skipped[0].Error(), "evaluation 8")
	assert.Equal(t, int64(9), skipped[1].RowID)
	assert.Empty(t, skipped[1].StudentID)
}
