// Package render turns aggregated evaluation data into documents: an
// individual report per evaluation, a summary per section and one
// system-wide summary, plus the flat CSV export.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/godilite/evalreport/internal/aggregate"
	"github.com/godilite/evalreport/internal/evaluation"
)

// Document is a rendered file ready for a sink.
type Document struct {
	Name string
	Ext  string
	Body []byte
}

// FileName is the name the document is stored under.
func (d Document) FileName() string {
	return d.Name + d.Ext
}

// Renderer produces the three document kinds.
type Renderer interface {
	Individual(r evaluation.Record) (Document, error)
	Section(s aggregate.SectionSummary, group aggregate.TeacherProgramSummary) (Document, error)
	System(s aggregate.SystemSummary, generatedAt time.Time) (Document, error)
}

const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

// New returns the renderer for format.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatHTML, "":
		return NewHTMLRenderer(), nil
	case FormatPDF:
		return NewPDFRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// categoryView pairs a category score with its raw item scores.
type categoryView struct {
	evaluation.CategoryScore
	Items  []int
	Labels []string
}

func categoryViews(r evaluation.Record) []categoryView {
	labels := evaluation.ItemLabels()
	scores := r.Scores.CategoryScores()
	out := make([]categoryView, len(scores))
	offset := 0
	for c, cs := range scores {
		items := r.Scores.CategoryItems(c)
		out[c] = categoryView{
			CategoryScore: cs,
			Items:         items,
			Labels:        labels[offset : offset+len(items)],
		}
		offset += len(items)
	}
	return out
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}

func formatFivePoint(avg float64) string {
	return fmt.Sprintf("%.2f / 5", avg)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("January 2, 2006 3:04 PM")
}
