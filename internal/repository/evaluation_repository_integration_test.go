package repository_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/godilite/evalreport/internal/evaluation"
	"github.com/godilite/evalreport/internal/repository"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openWithSchema(t, repository.SQLiteSchema)
}

func openWithSchema(t *testing.T, schema string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

func insertEvaluation(t *testing.T, db *sql.DB, teacherID int, student, name, section, program, score, submitted any) {
	t.Helper()

	cols := evaluation.ItemColumns()
	args := []any{student, name, teacherID, "Physics", section, program}
	for range cols {
		args = append(args, score)
	}
	args = append(args, "Very helpful", nil, submitted)

	query := `INSERT INTO evaluations (student_id, student_name, teacher_id, subject, section, program, ` +
		strings.Join(cols, ", ") + `, positive_comments, negative_comments, submitted_at) VALUES (?` +
		strings.Repeat(", ?", len(args)-1) + `)`
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func seedTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO teachers (name) VALUES ('Ms. Santos'), ('Mr. Cruz');`)
	require.NoError(t, err)

	insertEvaluation(t, db, 1, "S3", "Carla", "11-B", "SHS", 4, "2025-02-14 08:00:00")
	insertEvaluation(t, db, 1, "S1", "Ana", "11-A", "SHS", 5, "2025-02-14T09:00:00Z")
	insertEvaluation(t, db, 2, "S2", "Ben", "BSCS-1", "COLLEGE", nil, "2025-02-15 10:30:00")
}

func TestEvaluationRepository_Integration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()
	seedTestData(t, db)

	repo := repository.NewEvaluationRepository(db)

	t.Run("ListEvaluations", func(t *testing.T) {
		rows, err := repo.ListEvaluations(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		// ordered by teacher name, then section
		require.Equal(t, "Mr. Cruz", rows[0].TeacherName.String)
		require.Equal(t, "Ms. Santos", rows[1].TeacherName.String)
		require.Equal(t, "11-A", rows[1].Section.String)
		require.Equal(t, "11-B", rows[2].Section.String)

		ana := rows[1]
		require.Equal(t, "S1", ana.StudentID.String)
		require.Equal(t, "Physics", ana.Subject.String)
		for _, s := range ana.Scores {
			require.True(t, s.Valid)
			require.EqualValues(t, 5, s.Int64)
		}
		require.Equal(t, "Very helpful", ana.PositiveComments.String)
		require.False(t, ana.NegativeComments.Valid)
		require.True(t, ana.SubmittedAt.Valid)
		require.Equal(t, time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC), ana.SubmittedAt.Time.UTC())

		ben := rows[0]
		require.False(t, ben.Scores[0].Valid, "null scores must survive the scan")
		require.False(t, ben.Scores[0].Malformed())
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.ListEvaluations(cctx)
		require.Error(t, err)
	})

	t.Run("missing tables", func(t *testing.T) {
		empty, err := sql.Open("sqlite3", ":memory:")
		require.NoError(t, err)
		defer empty.Close()

		_, err = repository.NewEvaluationRepository(empty).ListEvaluations(ctx)
		require.ErrorContains(t, err, "query ListEvaluations")
	})
}

func TestEvaluationRepository_MalformedValues(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown submission layout is returned with the other rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		_, err := db.Exec(`INSERT INTO teachers (name) VALUES ('Ms. Santos')`)
		require.NoError(t, err)
		insertEvaluation(t, db, 1, "S1", "Ana", "11-A", "SHS", 5, "2025-02-14 08:00:00")
		insertEvaluation(t, db, 1, "S2", "Ben", "11-A", "SHS", 4, "14/02/2025")

		rows, err := repository.NewEvaluationRepository(db).ListEvaluations(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		require.True(t, rows[0].SubmittedAt.Valid)
		require.False(t, rows[1].SubmittedAt.Valid)
		require.True(t, rows[1].SubmittedAt.Malformed())
		require.Equal(t, "14/02/2025", rows[1].SubmittedAt.Raw)
	})

	t.Run("non-integer scores are returned with the other rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()
		_, err := db.Exec(`INSERT INTO teachers (name) VALUES ('Ms. Santos')`)
		require.NoError(t, err)
		insertEvaluation(t, db, 1, "S1", "Ana", "11-A", "SHS", 5, "2025-02-14 08:00:00")
		insertEvaluation(t, db, 1, "S2", "Ben", "11-A", "SHS", "n/a", "2025-02-14 08:00:00")
		insertEvaluation(t, db, 1, "S3", "Cara", "11-A", "SHS", 4.5, "2025-02-14 08:00:00")

		rows, err := repository.NewEvaluationRepository(db).ListEvaluations(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		require.True(t, rows[0].Scores[0].Valid)
		require.EqualValues(t, 5, rows[0].Scores[0].Int64)
		require.True(t, rows[1].Scores[0].Malformed())
		require.Equal(t, "n/a", rows[1].Scores[0].Raw)
		require.True(t, rows[2].Scores[0].Malformed())
		require.Equal(t, "4.5", rows[2].Scores[0].Raw)
	})

	t.Run("null identity columns are returned with the other rows", func(t *testing.T) {
		// Same tables without NOT NULL, as found on servers where the
		// constraints were never declared.
		db := openWithSchema(t, strings.ReplaceAll(repository.SQLiteSchema, " NOT NULL", ""))
		defer db.Close()
		_, err := db.Exec(`INSERT INTO teachers (name) VALUES ('Ms. Santos')`)
		require.NoError(t, err)
		insertEvaluation(t, db, 1, "S1", "Ana", "11-A", "SHS", 5, "2025-02-14 08:00:00")
		insertEvaluation(t, db, 1, nil, nil, nil, nil, 4, nil)

		rows, err := repository.NewEvaluationRepository(db).ListEvaluations(ctx)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		// NULL sorts first in sqlite
		blank, ana := rows[0], rows[1]
		require.Equal(t, "S1", ana.StudentID.String)
		require.False(t, blank.StudentID.Valid)
		require.False(t, blank.StudentName.Valid)
		require.False(t, blank.Section.Valid)
		require.False(t, blank.Program.Valid)
		require.False(t, blank.SubmittedAt.Valid)
		require.False(t, blank.SubmittedAt.Malformed())
	})
}
