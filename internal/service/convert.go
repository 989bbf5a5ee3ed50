package service

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/godilite/evalreport/internal/evaluation"
	"github.com/godilite/evalreport/internal/repository/models"
)

// toRecord turns a stored row into a validated record.
func toRecord(row models.EvaluationRow) (evaluation.Record, error) {
	for _, col := range []struct {
		name  string
		value sql.NullString
	}{
		{"student id", row.StudentID},
		{"student name", row.StudentName},
		{"teacher", row.TeacherName},
		{"section", row.Section},
		{"program", row.Program},
	} {
		if !col.value.Valid {
			return evaluation.Record{}, fmt.Errorf("%s is missing", col.name)
		}
	}

	var scores evaluation.Scores
	labels := evaluation.ItemLabels()
	for i, s := range row.Scores {
		switch {
		case s.Malformed():
			return evaluation.Record{}, fmt.Errorf("score %s is not a whole number: %q", labels[i], s.Raw)
		case !s.Valid:
			return evaluation.Record{}, fmt.Errorf("score %s is missing", labels[i])
		}
		scores[i] = int(s.Int64)
	}

	if row.SubmittedAt.Malformed() {
		return evaluation.Record{}, fmt.Errorf("unrecognised submission time %q", row.SubmittedAt.Raw)
	}

	program, err := evaluation.ParseProgram(row.Program.String)
	if err != nil {
		return evaluation.Record{}, err
	}

	rec := evaluation.Record{
		StudentID:        strings.TrimSpace(row.StudentID.String),
		StudentName:      strings.TrimSpace(row.StudentName.String),
		Teacher:          evaluation.TeacherID(strings.TrimSpace(row.TeacherName.String)),
		Subject:          strings.TrimSpace(row.Subject.String),
		Section:          strings.TrimSpace(row.Section.String),
		Program:          program,
		Scores:           scores,
		PositiveComments: row.PositiveComments.String,
		NegativeComments: row.NegativeComments.String,
		SubmittedAt:      row.SubmittedAt.Time,
	}
	if err := rec.Validate(); err != nil {
		return evaluation.Record{}, err
	}
	return rec, nil
}

// toRecords keeps every convertible row and reports the rest.
func toRecords(rows []models.EvaluationRow) ([]evaluation.Record, []InputError) {
	records := make([]evaluation.Record, 0, len(rows))
	var skipped []InputError
	for _, row := range rows {
		rec, err := toRecord(row)
		if err != nil {
			skipped = append(skipped, InputError{
				RowID:     row.ID,
				StudentID: strings.TrimSpace(row.StudentID.String),
				Reason:    err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}
