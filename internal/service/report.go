package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/evalreport/internal/aggregate"
	"github.com/godilite/evalreport/internal/evaluation"
	"github.com/godilite/evalreport/internal/render"
	"github.com/godilite/evalreport/internal/sink"
)

const (
	defaultConcurrency = 4
	defaultRunTimeout  = 10 * time.Minute
	dbTimeout          = 30 * time.Second
)

// ReportService runs the whole report pipeline: load, aggregate, render, write.
type ReportService struct {
	storage     EvaluationRepository
	sink        sink.Sink
	renderer    render.Renderer
	aggregator  *aggregate.Aggregator
	notifier    Notifier
	logger      *zap.Logger
	concurrency int
	timeout     time.Duration
	now         func() time.Time
}

type Option func(*ReportService)

// WithConcurrency bounds how many teachers are written in parallel.
func WithConcurrency(n int) Option {
	return func(s *ReportService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTimeout caps a whole run, sink writes included.
func WithTimeout(d time.Duration) Option {
	return func(s *ReportService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *ReportService) { s.notifier = n }
}

// NewReportService creates a new ReportService instance.
func NewReportService(storage EvaluationRepository, out sink.Sink, renderer render.Renderer, aggregator *aggregate.Aggregator, logger *zap.Logger, opts ...Option) *ReportService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if out == nil {
		panic("sink must not be nil")
	}
	if renderer == nil {
		panic("renderer must not be nil")
	}
	if aggregator == nil {
		panic("aggregator must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &ReportService{
		storage:     storage,
		sink:        out,
		renderer:    renderer,
		aggregator:  aggregator,
		logger:      logger.Named("report"),
		concurrency: defaultConcurrency,
		timeout:     defaultRunTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces every report for the current evaluation set. Individual
// write failures are collected in the summary; only a run where nothing at
// all could be written returns ErrAllWritesFailed.
func (s *ReportService) Generate(ctx context.Context, admin Admin) (RunSummary, error) {
	if !admin.Authenticated() {
		return RunSummary{}, ErrUnauthorized
	}

	run := RunSummary{ID: uuid.NewString(), Admin: admin.String(), StartedAt: s.now()}
	logger := s.logger.With(zap.String("run_id", run.ID), zap.String("admin", run.Admin))
	logger.Info("report run started")

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sink.Check(runCtx); err != nil {
		logger.Error("output sink unavailable", zap.Error(err))
		return s.finish(run), fmt.Errorf("%w: %v", ErrSinkUnavailable, err)
	}

	records, err := s.load(runCtx, &run, logger)
	if err != nil {
		return s.finish(run), err
	}

	agg := s.aggregator.WithContext(runCtx)
	groups := agg.ByTeacherAndProgram(records)
	system := agg.System(records, groups)
	run.Evaluations = len(records)
	run.Teachers = system.Teachers

	w := &writeLog{}
	s.writeRoot(runCtx, records, system, &run, w)

	byTeacher := groupByTeacher(groups)
	teachers := sortedTeachers(byTeacher)
	dirs := teacherDirs(teachers)
	for _, teacher := range teachers {
		if dir := dirs[teacher]; dir != render.TeacherDir(teacher) {
			logger.Warn("teacher folder name taken, using a suffix",
				zap.String("teacher", string(teacher)),
				zap.String("folder", dir))
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, teacher := range teachers {
		g.Go(func() error {
			s.writeTeacher(runCtx, agg, teacher, dirs[teacher], byTeacher[teacher], records, groups, w)
			return nil
		})
	}
	_ = g.Wait()

	run.Containers, run.Documents, run.Sections, run.Failures = w.counts()
	run = s.finish(run)

	logger.Info("report run finished",
		zap.Int("evaluations", run.Evaluations),
		zap.Int("documents", run.Documents),
		zap.Int("containers", run.Containers),
		zap.Int("failures", len(run.Failures)),
		zap.Int("skipped", len(run.Skipped)),
		zap.Duration("duration", run.Duration))

	s.notify(ctx, run, logger)

	if !run.Succeeded() {
		if err := runCtx.Err(); err != nil {
			return run, fmt.Errorf("%w: %v", ErrAllWritesFailed, err)
		}
		return run, ErrAllWritesFailed
	}
	return run, nil
}

func (s *ReportService) load(ctx context.Context, run *RunSummary, logger *zap.Logger) ([]evaluation.Record, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.storage.ListEvaluations(dbCtx)
	if err != nil {
		logger.Error("failed to load evaluations", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	records, skipped := toRecords(rows)
	for _, ie := range skipped {
		logger.Warn("skipping malformed evaluation",
			zap.Int64("row_id", ie.RowID),
			zap.String("student_id", ie.StudentID),
			zap.String("reason", ie.Reason))
	}
	run.Skipped = skipped

	if len(records) == 0 {
		logger.Info("no evaluations to report", zap.Int("rows", len(rows)))
		return nil, ErrNoEvaluations
	}
	return records, nil
}

// writeRoot writes the CSV export and the system summary at the top of the tree.
func (s *ReportService) writeRoot(ctx context.Context, records []evaluation.Record, system aggregate.SystemSummary, run *RunSummary, w *writeLog) {
	var buf bytes.Buffer
	if err := render.WriteCSV(&buf, records); err != nil {
		w.fail(render.CSVName, err)
	} else if id, err := s.sink.WriteDocument(ctx, sink.Root, render.CSVName, buf.Bytes()); err != nil {
		w.fail(render.CSVName, err)
	} else {
		w.document()
		run.CSVLocation = id
	}

	doc, err := s.renderer.System(system, run.StartedAt)
	if err != nil {
		w.fail(render.SystemSummaryName, err)
		return
	}
	s.write(ctx, sink.Root, "", doc, w)
}

// writeTeacher writes one teacher's folder, named teacherName: a folder per
// section-program pair holding the individual reports and the section summary.
func (s *ReportService) writeTeacher(ctx context.Context, agg *aggregate.Aggregator, teacher evaluation.TeacherID, teacherName string, programs []evaluation.Program, records []evaluation.Record, groups map[aggregate.GroupKey]aggregate.TeacherProgramSummary, w *writeLog) {
	logger := s.logger.With(zap.String("teacher", string(teacher)))

	type section struct {
		summary aggregate.SectionSummary
		group   aggregate.TeacherProgramSummary
		records []evaluation.Record
	}
	var sections []section
	for _, p := range programs {
		group := groups[aggregate.GroupKey{Teacher: teacher, Program: p}]
		for _, sum := range agg.BySection(records, teacher, p) {
			sections = append(sections, section{summary: sum, group: group, records: sectionRecords(records, teacher, p, sum.Section)})
		}
	}
	w.sections(len(sections))

	teacherID, err := s.sink.CreateContainer(ctx, sink.Root, teacherName)
	if err != nil {
		logger.Warn("failed to create teacher folder", zap.Error(err))
		w.fail(teacherName, err)
		for _, sec := range sections {
			w.failChildren(path.Join(teacherName, render.SectionDir(sec.summary.Section, sec.summary.Program)), sec.records, err)
		}
		return
	}
	w.container()

	for _, sec := range sections {
		dirName := render.SectionDir(sec.summary.Section, sec.summary.Program)
		dirPath := path.Join(teacherName, dirName)
		secID, err := s.sink.CreateContainer(ctx, teacherID, dirName)
		if err != nil {
			logger.Warn("failed to create section folder", zap.String("section", dirPath), zap.Error(err))
			w.fail(dirPath, err)
			w.failChildren(dirPath, sec.records, err)
			continue
		}
		w.container()

		for _, rec := range sec.records {
			doc, err := s.renderer.Individual(rec)
			if err != nil {
				w.fail(path.Join(dirPath, render.StudentDocName(rec.StudentName, rec.StudentID)), err)
				continue
			}
			s.write(ctx, secID, dirPath, doc, w)
		}

		doc, err := s.renderer.Section(sec.summary, sec.group)
		if err != nil {
			w.fail(path.Join(dirPath, render.SectionSummaryName), err)
			continue
		}
		s.write(ctx, secID, dirPath, doc, w)
	}
}

func (s *ReportService) write(ctx context.Context, containerID, dirPath string, doc render.Document, w *writeLog) {
	name := doc.FileName()
	if _, err := s.sink.WriteDocument(ctx, containerID, name, doc.Body); err != nil {
		s.logger.Warn("failed to write document", zap.String("path", path.Join(dirPath, name)), zap.Error(err))
		w.fail(path.Join(dirPath, name), err)
		return
	}
	w.document()
}

func (s *ReportService) finish(run RunSummary) RunSummary {
	run.FinishedAt = s.now()
	run.Duration = run.FinishedAt.Sub(run.StartedAt)
	return run
}

func (s *ReportService) notify(ctx context.Context, run RunSummary, logger *zap.Logger) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("run notification failed", zap.Error(err))
	}
}

// groupByTeacher lists each teacher's programs in sorted order.
func groupByTeacher(groups map[aggregate.GroupKey]aggregate.TeacherProgramSummary) map[evaluation.TeacherID][]evaluation.Program {
	out := make(map[evaluation.TeacherID][]evaluation.Program)
	for _, k := range aggregate.SortedKeys(groups) {
		out[k.Teacher] = append(out[k.Teacher], k.Program)
	}
	return out
}

func sortedTeachers(m map[evaluation.TeacherID][]evaluation.Program) []evaluation.TeacherID {
	out := make([]evaluation.TeacherID, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// teacherDirs gives each teacher a folder name no other teacher in the run
// uses, compared case-insensitively. teachers must be sorted: the first
// teacher keeps the plain name and later ones get _2, _3 and so on.
func teacherDirs(teachers []evaluation.TeacherID) map[evaluation.TeacherID]string {
	out := make(map[evaluation.TeacherID]string, len(teachers))
	taken := make(map[string]bool, len(teachers))
	var clashes []evaluation.TeacherID
	for _, t := range teachers {
		name := render.TeacherDir(t)
		if key := strings.ToLower(name); !taken[key] {
			taken[key] = true
			out[t] = name
			continue
		}
		clashes = append(clashes, t)
	}
	for _, t := range clashes {
		base := render.TeacherDir(t)
		for n := 2; ; n++ {
			name := fmt.Sprintf("%s_%d", base, n)
			if key := strings.ToLower(name); !taken[key] {
				taken[key] = true
				out[t] = name
				break
			}
		}
	}
	return out
}

// sectionRecords returns the records of one section in summary order.
func sectionRecords(records []evaluation.Record, teacher evaluation.TeacherID, program evaluation.Program, section string) []evaluation.Record {
	var out []evaluation.Record
	for _, r := range records {
		if r.Teacher == teacher && r.Program == program && r.Section == section {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StudentName != out[j].StudentName {
			return out[i].StudentName < out[j].StudentName
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

// writeLog is the run's partial-failure ledger, shared by the teacher workers.
type writeLog struct {
	mu          sync.Mutex
	nContainers int
	nDocuments  int
	nSections   int
	failures    []WriteError
}

func (w *writeLog) container() {
	w.mu.Lock()
	w.nContainers++
	w.mu.Unlock()
}

func (w *writeLog) document() {
	w.mu.Lock()
	w.nDocuments++
	w.mu.Unlock()
}

func (w *writeLog) sections(n int) {
	w.mu.Lock()
	w.nSections += n
	w.mu.Unlock()
}

func (w *writeLog) fail(p string, err error) {
	w.mu.Lock()
	w.failures = append(w.failures, WriteError{Path: p, Reason: err.Error()})
	w.mu.Unlock()
}

// failChildren records every document of a section whose folder was never created.
func (w *writeLog) failChildren(dirPath string, records []evaluation.Record, cause error) {
	reason := "parent folder not created: " + cause.Error()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range records {
		w.failures = append(w.failures, WriteError{Path: path.Join(dirPath, render.StudentDocName(r.StudentName, r.StudentID)), Reason: reason})
	}
	w.failures = append(w.failures, WriteError{Path: path.Join(dirPath, render.SectionSummaryName), Reason: reason})
}

// counts returns the totals with failures sorted by path.
func (w *writeLog) counts() (containers, documents, sections int, failures []WriteError) {
	w.mu.Lock()
	defer w.mu.Unlock()
	failures = append([]WriteError(nil), w.failures...)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })
	return w.nContainers, w.nDocuments, w.nSections, failures
}
