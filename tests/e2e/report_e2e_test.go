//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/godilite/evalreport/internal/aggregate"
	"github.com/godilite/evalreport/internal/classify"
	"github.com/godilite/evalreport/internal/evaluation"
	"github.com/godilite/evalreport/internal/grpc"
	"github.com/godilite/evalreport/internal/render"
	"github.com/godilite/evalreport/internal/repository"
	"github.com/godilite/evalreport/internal/service"
	"github.com/godilite/evalreport/internal/sink"
	"github.com/godilite/evalreport/tests/e2e/mocks"
	grpcsrv "github.com/godilite/evalreport/pkg/grpc/server"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(repository.SQLiteSchema)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO teachers (name) VALUES ('Ms. Santos'), ('Mr. O''Brien')`)
	require.NoError(t, err)

	cols := evaluation.ItemColumns()
	insert := func(teacherID int, studentID, name, section, program string, score int, positive, negative any) {
		args := []any{studentID, name, teacherID, "Physics", section, program}
		for range cols {
			args = append(args, score)
		}
		args = append(args, positive, negative, "2025-02-14 08:00:00")
		_, err := db.Exec(`INSERT INTO evaluations (student_id, student_name, teacher_id, subject, section, program, `+
			strings.Join(cols, ", ")+`, positive_comments, negative_comments, submitted_at) VALUES (?`+
			strings.Repeat(", ?", len(args)-1)+`)`, args...)
		require.NoError(t, err)
	}

	insert(1, "S1", "Ana Reyes", "11-A", "SHS", 5, "Magaling magturo, very helpful", nil)
	insert(1, "S2", "Ben Lim", "11-A", "SHS", 4, nil, "Minsan late pero mabait")
	insert(1, "S3", "Carla Dizon", "11-B", "SHS", 3, "Okay", nil)
	insert(2, "S4", "Dan Cruz", "BSCS-1", "COLLEGE", 2, nil, "Boring and always late")
	// out of range on every item: skipped as malformed
	insert(2, "S5", "Eve Go", "BSCS-1", "COLLEGE", 9, nil, nil)

	return db
}

func newService(t *testing.T, db *sql.DB, out sink.Sink, format string) *service.ReportService {
	t.Helper()
	renderer, err := render.New(format)
	require.NoError(t, err)
	logger := zap.NewNop()
	return service.NewReportService(
		repository.NewEvaluationRepository(db),
		out,
		renderer,
		aggregate.New(classify.NewKeywordClassifier(classify.DefaultKeywords()), logger),
		logger,
		service.WithConcurrency(2),
	)
}

func adminCtx() context.Context {
	return grpcsrv.ContextWithAdmin(context.Background(), grpcsrv.Admin{ID: "token:registrar", Name: "registrar"})
}

func TestE2E_GenerateReports_HTML(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	outDir := t.TempDir()
	tracking := mocks.NewTrackingCache()

	handler := grpc.NewGRPCHandlers(newService(t, db, sink.NewFileSink(outDir), "html"), tracking, zap.NewNop(), time.Minute)

	resp, err := handler.GenerateReports(adminCtx(), &emptypb.Empty{})
	require.NoError(t, err)

	fields := resp.GetFields()
	assert.Equal(t, float64(4), fields["evaluations"].GetNumberValue())
	assert.Equal(t, float64(2), fields["teachers"].GetNumberValue())
	assert.Len(t, fields["skipped"].GetListValue().GetValues(), 1)
	assert.Empty(t, fields["failures"].GetListValue().GetValues())
	// 2 teachers + 3 sections
	assert.Equal(t, float64(5), fields["containers"].GetNumberValue())
	// csv + system + 4 individual + 3 section summaries
	assert.Equal(t, float64(9), fields["documents"].GetNumberValue())

	santos := filepath.Join(outDir, render.TeacherDir("Ms. Santos"))
	assert.FileExists(t, filepath.Join(santos, render.SectionDir("11-A", evaluation.ProgramSHS), render.SectionSummaryName+".html"))
	assert.FileExists(t, filepath.Join(santos, render.SectionDir("11-B", evaluation.ProgramSHS), render.StudentDocName("Carla Dizon", "S3")+".html"))
	assert.DirExists(t, filepath.Join(outDir, render.TeacherDir("Mr. O'Brien"), render.SectionDir("BSCS-1", evaluation.ProgramCollege)))

	data, err := os.ReadFile(filepath.Join(outDir, render.CSVName))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("\xEF\xBB\xBF")), "csv must start with a BOM")
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF")))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 5) // header + 4 valid evaluations

	individual, err := os.ReadFile(filepath.Join(santos, render.SectionDir("11-A", evaluation.ProgramSHS), render.StudentDocName("Ana Reyes", "S1")+".html"))
	require.NoError(t, err)
	assert.Contains(t, string(individual), "Ana Reyes")

	gets, sets, locks := tracking.Stats()
	assert.Equal(t, 0, gets)
	assert.Equal(t, 1, sets)
	assert.Equal(t, 1, locks)

	last, err := handler.GetLastRun(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, fields["id"].GetStringValue(), last.GetFields()["id"].GetStringValue())
}

func TestE2E_GenerateReports_PDF(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	outDir := t.TempDir()

	svc := newService(t, db, sink.NewFileSink(outDir), "pdf")
	summary, err := svc.Generate(context.Background(), service.Admin{ID: "cli:registrar", Name: "registrar"})
	require.NoError(t, err)
	assert.Equal(t, 9, summary.Documents)

	data, err := os.ReadFile(filepath.Join(outDir, render.SystemSummaryName+".pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestE2E_PartialFailure(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	outDir := t.TempDir()

	// a plain file where a teacher folder should go blocks that teacher's subtree
	require.NoError(t, os.WriteFile(filepath.Join(outDir, render.TeacherDir("Ms. Santos")), []byte("x"), 0o644))

	svc := newService(t, db, sink.NewFileSink(outDir), "html")
	summary, err := svc.Generate(context.Background(), service.Admin{ID: "cli:registrar", Name: "registrar"})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.Failures)
	for _, f := range summary.Failures {
		assert.True(t, strings.HasPrefix(f.Path, render.TeacherDir("Ms. Santos")), f.Path)
	}
	assert.FileExists(t, filepath.Join(outDir, render.CSVName))
	assert.DirExists(t, filepath.Join(outDir, render.TeacherDir("Mr. O'Brien")))
}

func TestE2E_RunLockHeldElsewhere(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	tracking := mocks.NewTrackingCache()
	tracking.Hold("evalreport:run_lock", time.Minute)

	handler := grpc.NewGRPCHandlers(newService(t, db, sink.NewFileSink(t.TempDir()), "html"), tracking, zap.NewNop(), time.Minute)

	_, err := handler.GenerateReports(adminCtx(), &emptypb.Empty{})
	assert.Equal(t, codes.Aborted, status.Code(err))
}

func TestE2E_NoEvaluations(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	_, err = db.Exec(repository.SQLiteSchema)
	require.NoError(t, err)

	outDir := t.TempDir()
	handler := grpc.NewGRPCHandlers(newService(t, db, sink.NewFileSink(outDir), "html"), nil, zap.NewNop(), time.Minute)

	_, err = handler.GenerateReports(adminCtx(), &emptypb.Empty{})
	assert.Equal(t, codes.NotFound, status.Code(err))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
