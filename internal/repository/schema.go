package repository

import (
	"strings"

	"github.com/godilite/evalreport/internal/evaluation"
)

// SQLiteSchema creates the tables ListEvaluations reads, for local
// development databases and tests.
var SQLiteSchema = buildSQLiteSchema()

func buildSQLiteSchema() string {
	cols := evaluation.ItemColumns()
	for i, c := range cols {
		cols[i] = "\t\t" + c + " INTEGER"
	}
	return `
	CREATE TABLE IF NOT EXISTS teachers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id TEXT NOT NULL,
		student_name TEXT NOT NULL,
		teacher_id INTEGER NOT NULL,
		subject TEXT,
		section TEXT NOT NULL,
		program TEXT NOT NULL,
` + strings.Join(cols, ",\n") + `,
		positive_comments TEXT,
		negative_comments TEXT,
		submitted_at TEXT NOT NULL,
		FOREIGN KEY (teacher_id) REFERENCES teachers(id)
	);
	`
}
