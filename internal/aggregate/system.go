package aggregate

import (
	"sort"

	"github.com/godilite/evalreport/internal/evaluation"
)

// ProgramBreakdown is one program's line in the system summary.
type ProgramBreakdown struct {
	Program evaluation.Program
	Count   int
	Average float64
}

// SystemSummary covers every evaluation in the run.
type SystemSummary struct {
	Evaluations   int
	Teachers      int
	Programs      int
	GlobalAverage float64
	ByProgram     []ProgramBreakdown
	Groups        []TeacherProgramSummary
}

// System computes the run-wide totals. Averages use the same sum-of-items
// formula as ByTeacherAndProgram, on the 0-100 scale. groups is the result of
// ByTeacherAndProgram for the same records; it is listed, not recomputed, so
// every comment is classified once per run.
func (a *Aggregator) System(records []evaluation.Record, groups map[GroupKey]TeacherProgramSummary) SystemSummary {
	valid := a.usable(records)
	summary := SystemSummary{ByProgram: []ProgramBreakdown{}, Groups: []TeacherProgramSummary{}}
	if len(valid) == 0 {
		return summary
	}

	teachers := make(map[evaluation.TeacherID]struct{})
	type acc struct{ count, total int }
	programs := make(map[evaluation.Program]*acc)
	total := 0
	for _, r := range valid {
		teachers[r.Teacher] = struct{}{}
		p, ok := programs[r.Program]
		if !ok {
			p = &acc{}
			programs[r.Program] = p
		}
		p.count++
		p.total += r.Scores.Sum()
		total += r.Scores.Sum()
	}

	summary.Evaluations = len(valid)
	summary.Teachers = len(teachers)
	summary.Programs = len(programs)
	summary.GlobalAverage = percentOf(total, len(valid))

	for prog, p := range programs {
		summary.ByProgram = append(summary.ByProgram, ProgramBreakdown{
			Program: prog,
			Count:   p.count,
			Average: percentOf(p.total, p.count),
		})
	}
	sort.Slice(summary.ByProgram, func(i, j int) bool {
		return summary.ByProgram[i].Program < summary.ByProgram[j].Program
	})

	for _, k := range SortedKeys(groups) {
		summary.Groups = append(summary.Groups, groups[k])
	}
	return summary
}

func percentOf(sum, records int) float64 {
	if records == 0 {
		return 0
	}
	return float64(sum) / float64(evaluation.ItemCount*evaluation.MaxScore*records) * 100
}
