package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/godilite/evalreport/internal/aggregate"
	"github.com/godilite/evalreport/internal/classify"
	"github.com/godilite/evalreport/internal/evaluation"
)

const htmlHead = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:Calibri,Arial,sans-serif;font-size:11pt;color:#1f1f1f;margin:24px}
table{border-collapse:collapse;margin:8px 0 16px 0}
th,td{border:1px solid #c8c8c8;padding:4px 8px;text-align:left}
th{background:#28916c;color:#fff}
.muted{color:#646464;font-size:9pt}
</style></head><body>
<h1>{{.Title}}</h1>
`

const htmlFoot = `<p class="muted">Document generated on {{date .GeneratedAt}}</p>
</body></html>
`

var funcs = template.FuncMap{
	"pct":       formatPercent,
	"fivePoint": formatFivePoint,
	"date":      formatDate,
	"pctLabel":  PercentLabel,
	"fiveLabel": FivePointLabel,
	"inc":       func(i int) int { return i + 1 },
	"share": func(a classify.CommentAnalysis, s string) string {
		return a.Percent(classify.Sentiment(s))
	},
}

var individualTmpl = template.Must(template.New("individual").Funcs(funcs).Parse(htmlHead + `
<table>
<tr><th>Student</th><td>{{.Record.StudentName}} ({{.Record.StudentID}})</td></tr>
<tr><th>Teacher</th><td>{{.Record.Teacher}}</td></tr>
<tr><th>Subject</th><td>{{.Record.Subject}}</td></tr>
<tr><th>Section</th><td>{{.Record.Section}} / {{.Record.Program}}</td></tr>
<tr><th>Submitted</th><td>{{date .Record.SubmittedAt}}</td></tr>
</table>
{{range .Categories}}
<h2>{{.Label}}</h2>
<table>
<tr>{{range .Labels}}<th>{{.}}</th>{{end}}</tr>
<tr>{{range .Items}}<td>{{.}}</td>{{end}}</tr>
</table>
<p>Sum {{.Sum}} / {{.MaxSum}} &middot; {{pct .Percentage}}</p>
{{end}}
<h2>Overall</h2>
<p><strong>{{fivePoint .Average}}</strong> ({{fiveLabel .Average}})</p>
<h2>Comments</h2>
<p><strong>Strengths:</strong> {{.Record.PositiveComments}}</p>
<p><strong>Areas for improvement:</strong> {{.Record.NegativeComments}}</p>
` + htmlFoot))

var sectionTmpl = template.Must(template.New("section").Funcs(funcs).Parse(htmlHead + `
<p>Teacher: <strong>{{.Section.Teacher}}</strong> &middot; Section {{.Section.Section}} &middot; {{.Section.Program}}</p>
<table>
<tr><th>#</th><th>Student</th><th>ID</th><th>Average</th><th>Rating</th><th>Comments</th></tr>
{{range $i, $s := .Section.Students}}<tr><td>{{inc $i}}</td><td>{{$s.StudentName}}</td><td>{{$s.StudentID}}</td><td>{{fivePoint $s.Average}}</td><td>{{fiveLabel $s.Average}}</td><td>{{$s.Comments}}</td></tr>
{{end}}</table>
<p>Section average: <strong>{{fivePoint .Section.Average}}</strong> ({{fiveLabel .Section.Average}})</p>
<h2>{{.Section.Teacher}} &middot; {{.Section.Program}} overall</h2>
<p>{{.Group.Count}} evaluations &middot; {{pct .Group.OverallAverage}} ({{pctLabel .Group.OverallAverage}})</p>
` + htmlFoot))

var systemTmpl = template.Must(template.New("system").Funcs(funcs).Parse(htmlHead + `
<table>
<tr><th>Total evaluations</th><td>{{.System.Evaluations}}</td></tr>
<tr><th>Teachers evaluated</th><td>{{.System.Teachers}}</td></tr>
<tr><th>Programs</th><td>{{.System.Programs}}</td></tr>
<tr><th>Global average</th><td>{{pct .System.GlobalAverage}} ({{pctLabel .System.GlobalAverage}})</td></tr>
</table>
<h2>By program</h2>
<table>
<tr><th>Program</th><th>Evaluations</th><th>Average</th><th>Rating</th></tr>
{{range .System.ByProgram}}<tr><td>{{.Program}}</td><td>{{.Count}}</td><td>{{pct .Average}}</td><td>{{pctLabel .Average}}</td></tr>
{{end}}</table>
<h2>By teacher</h2>
<table>
<tr><th>Teacher</th><th>Program</th><th>Evaluations</th>{{range .CategoryLabels}}<th>{{.}}</th>{{end}}<th>Overall</th><th>Min</th><th>Max</th><th>Rating</th><th>Positive</th><th>Negative</th><th>Neutral</th></tr>
{{range .System.Groups}}<tr><td>{{.Key.Teacher}}</td><td>{{.Key.Program}}</td><td>{{.Count}}</td>{{range .Categories}}<td>{{pct .Percentage}}</td>{{end}}<td>{{pct .OverallAverage}}</td><td>{{pct .MinPercentage}}</td><td>{{pct .MaxPercentage}}</td><td>{{pctLabel .OverallAverage}}</td><td>{{.Comments.Positive}} ({{share .Comments "positive"}})</td><td>{{.Comments.Negative}} ({{share .Comments "negative"}})</td><td>{{.Comments.Neutral}} ({{share .Comments "neutral"}})</td></tr>
{{end}}</table>
{{range .System.Groups}}{{if .Comments.Samples}}<h3>{{.Key.Teacher}} &middot; {{.Key.Program}}: sample comments</h3>
<ul>{{range .Comments.Samples}}<li>{{.}}</li>{{end}}</ul>
{{end}}{{end}}
` + htmlFoot))

// HTMLRenderer renders self-contained HTML documents.
type HTMLRenderer struct {
	now func() time.Time
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{now: time.Now}
}

func (h *HTMLRenderer) Individual(r evaluation.Record) (Document, error) {
	data := struct {
		Title       string
		GeneratedAt time.Time
		Record      evaluation.Record
		Categories  []categoryView
		Average     float64
	}{
		Title:       "Teacher Evaluation: " + r.StudentName,
		GeneratedAt: h.now(),
		Record:      r,
		Categories:  categoryViews(r),
		Average:     r.Scores.Average(),
	}
	return h.execute(individualTmpl, StudentDocName(r.StudentName, r.StudentID), data)
}

func (h *HTMLRenderer) Section(s aggregate.SectionSummary, group aggregate.TeacherProgramSummary) (Document, error) {
	data := struct {
		Title       string
		GeneratedAt time.Time
		Section     aggregate.SectionSummary
		Group       aggregate.TeacherProgramSummary
	}{
		Title:       fmt.Sprintf("Section Summary: %s %s", s.Section, s.Program),
		GeneratedAt: h.now(),
		Section:     s,
		Group:       group,
	}
	return h.execute(sectionTmpl, SectionSummaryName, data)
}

func (h *HTMLRenderer) System(s aggregate.SystemSummary, generatedAt time.Time) (Document, error) {
	labels := make([]string, len(evaluation.Categories))
	for i, c := range evaluation.Categories {
		labels[i] = c.Label
	}
	data := struct {
		Title          string
		GeneratedAt    time.Time
		System         aggregate.SystemSummary
		CategoryLabels []string
	}{
		Title:          "Teacher Evaluation System Summary",
		GeneratedAt:    generatedAt,
		System:         s,
		CategoryLabels: labels,
	}
	return h.execute(systemTmpl, SystemSummaryName, data)
}

func (h *HTMLRenderer) execute(t *template.Template, name string, data any) (Document, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Document{}, fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return Document{Name: name, Ext: ".html", Body: buf.Bytes()}, nil
}
