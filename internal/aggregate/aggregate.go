// Package aggregate folds evaluation records into per-teacher, per-section
// and system-wide summaries. Every function here is a pure fold over its
// input; results are sorted so repeated runs produce identical values.
package aggregate

import (
	"context"
	"sort"

	"github.com/godilite/evalreport/internal/classify"
	"github.com/godilite/evalreport/internal/evaluation"
	"go.uber.org/zap"
)

// GroupKey identifies a teacher-program group.
type GroupKey struct {
	Teacher evaluation.TeacherID
	Program evaluation.Program
}

// TeacherProgramSummary aggregates every evaluation of one teacher within one program.
type TeacherProgramSummary struct {
	Key        GroupKey
	Count      int
	Categories []evaluation.CategoryScore
	// OverallAverage is on the 0-100 scale: the sum of every item score in
	// the group over the best possible sum, not a mean of per-record percentages.
	OverallAverage float64
	MinPercentage  float64
	MaxPercentage  float64
	Sections       []string
	Comments       classify.CommentAnalysis
}

// StudentScore is one evaluation's line in a section summary.
type StudentScore struct {
	StudentID   string
	StudentName string
	Average     float64
	Comments    string
}

// SectionSummary lists the students of one teacher's section and their averages.
type SectionSummary struct {
	Teacher  evaluation.TeacherID
	Section  string
	Program  evaluation.Program
	Students []StudentScore
	Comments []string
	// Average is the mean of the per-student averages on the five-point scale.
	Average float64
}

// Aggregator groups records and classifies their comments.
type Aggregator struct {
	classifier classify.Classifier
	sampleSize int
	logger     *zap.Logger
}

type Option func(*Aggregator)

// WithSampleSize sets how many comments a CommentAnalysis retains.
func WithSampleSize(n int) Option {
	return func(a *Aggregator) {
		if n >= 0 {
			a.sampleSize = n
		}
	}
}

// New creates an Aggregator. classifier must not be nil.
func New(classifier classify.Classifier, logger *zap.Logger, opts ...Option) *Aggregator {
	if classifier == nil {
		panic("classifier must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		classifier: classifier,
		sampleSize: classify.DefaultSampleSize,
		logger:     logger.Named("aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// WithContext returns an aggregator whose comment classification stops making
// remote calls once ctx is done. Classifiers without remote calls are shared.
func (a *Aggregator) WithContext(ctx context.Context) *Aggregator {
	b, ok := a.classifier.(classify.ContextBinder)
	if !ok {
		return a
	}
	bound := *a
	bound.classifier = b.WithContext(ctx)
	return &bound
}

// usable drops malformed records with a warning so one bad row does not
// spoil the rest of its group.
func (a *Aggregator) usable(records []evaluation.Record) []evaluation.Record {
	out := make([]evaluation.Record, 0, len(records))
	for _, r := range records {
		if err := r.Validate(); err != nil {
			a.logger.Warn("skipping malformed evaluation",
				zap.String("student_id", r.StudentID),
				zap.String("teacher", string(r.Teacher)),
				zap.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out
}

type groupAcc struct {
	count      int
	total      int
	categories [len(evaluation.Categories)]int
	minPct     float64
	maxPct     float64
	sections   map[string]struct{}
	comments   []string
}

// ByTeacherAndProgram groups records by teacher display name and program.
// An empty input yields an empty map.
func (a *Aggregator) ByTeacherAndProgram(records []evaluation.Record) map[GroupKey]TeacherProgramSummary {
	out := make(map[GroupKey]TeacherProgramSummary)
	valid := a.usable(records)
	if len(valid) == 0 {
		return out
	}

	groups := make(map[GroupKey]*groupAcc)
	for _, r := range valid {
		key := GroupKey{Teacher: r.Teacher, Program: r.Program}
		g, ok := groups[key]
		pct := r.Scores.Percentage()
		if !ok {
			g = &groupAcc{minPct: pct, maxPct: pct, sections: make(map[string]struct{})}
			groups[key] = g
		}
		g.count++
		g.total += r.Scores.Sum()
		for c, s := range r.Scores.CategorySums() {
			g.categories[c] += s
		}
		if pct < g.minPct {
			g.minPct = pct
		}
		if pct > g.maxPct {
			g.maxPct = pct
		}
		g.sections[r.Section] = struct{}{}
		g.comments = append(g.comments, r.CommentTexts()...)
	}

	for key, g := range groups {
		cats := make([]evaluation.CategoryScore, len(evaluation.Categories))
		for c, cat := range evaluation.Categories {
			cats[c] = evaluation.NewCategoryScore(cat.Label, g.categories[c], cat.Items*g.count)
		}
		out[key] = TeacherProgramSummary{
			Key:            key,
			Count:          g.count,
			Categories:     cats,
			OverallAverage: percentOf(g.total, g.count),
			MinPercentage:  g.minPct,
			MaxPercentage:  g.maxPct,
			Sections:       sortedKeys(g.sections),
			Comments:       classify.Analyze(a.classifier, g.comments, a.sampleSize),
		}
	}
	return out
}

// BySection returns one summary per section code taught by teacher within
// program, ordered by section code.
func (a *Aggregator) BySection(records []evaluation.Record, teacher evaluation.TeacherID, program evaluation.Program) []SectionSummary {
	bySection := make(map[string]*SectionSummary)
	for _, r := range a.usable(records) {
		if r.Teacher != teacher || r.Program != program {
			continue
		}
		s, ok := bySection[r.Section]
		if !ok {
			s = &SectionSummary{
				Teacher:  teacher,
				Section:  r.Section,
				Program:  program,
				Students: []StudentScore{},
				Comments: []string{},
			}
			bySection[r.Section] = s
		}
		s.Students = append(s.Students, StudentScore{
			StudentID:   r.StudentID,
			StudentName: r.StudentName,
			Average:     r.Scores.Average(),
			Comments:    r.Comments(),
		})
		s.Comments = append(s.Comments, r.CommentTexts()...)
	}

	out := make([]SectionSummary, 0, len(bySection))
	for _, code := range sortedKeys(bySection) {
		s := bySection[code]
		sort.SliceStable(s.Students, func(i, j int) bool {
			if s.Students[i].StudentName != s.Students[j].StudentName {
				return s.Students[i].StudentName < s.Students[j].StudentName
			}
			return s.Students[i].StudentID < s.Students[j].StudentID
		})
		var sum float64
		for _, st := range s.Students {
			sum += st.Average
		}
		s.Average = sum / float64(len(s.Students))
		out = append(out, *s)
	}
	return out
}

// SortedKeys orders group keys by teacher, then program.
func SortedKeys(m map[GroupKey]TeacherProgramSummary) []GroupKey {
	keys := make([]GroupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Teacher != keys[j].Teacher {
			return keys[i].Teacher < keys[j].Teacher
		}
		return keys[i].Program < keys[j].Program
	})
	return keys
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
