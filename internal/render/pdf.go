package render

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/godilite/evalreport/internal/aggregate"
	"github.com/godilite/evalreport/internal/classify"
	"github.com/godilite/evalreport/internal/evaluation"
)

const fontFamily = "Arial"

// PDFRenderer renders A4 documents with the core PDF fonts.
type PDFRenderer struct {
	now func() time.Time
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{now: time.Now}
}

// page wraps a gofpdf document with the translator for its core font.
type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPage(orientation, title string) *page {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.SetTitle(title, true)
	pdf.AddPage()
	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFont(fontFamily, "B", 16)
	p.cell(0, 10, title)
	pdf.Ln(12)
	return p
}

func (p *page) cell(w, h float64, text string) {
	p.pdf.Cell(w, h, p.tr(text))
}

func (p *page) heading(text string) {
	p.pdf.Ln(2)
	p.pdf.SetFont(fontFamily, "B", 11)
	p.cell(0, 6, text)
	p.pdf.Ln(1)
	y := p.pdf.GetY() + 5
	w, _ := p.pdf.GetPageSize()
	left, _, right, _ := p.pdf.GetMargins()
	p.pdf.Line(left, y, w-right, y)
	p.pdf.Ln(7)
}

func (p *page) field(label, value string) {
	p.pdf.SetFont(fontFamily, "", 10)
	p.cell(45, 6, label)
	p.pdf.SetFont(fontFamily, "B", 10)
	p.cell(0, 6, value)
	p.pdf.Ln(6)
}

func (p *page) tableHeader(widths []float64, cols []string) {
	p.pdf.SetFont(fontFamily, "B", 8)
	p.pdf.SetFillColor(40, 145, 108)
	p.pdf.SetTextColor(255, 255, 255)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		p.pdf.CellFormat(widths[i], 7, p.tr(c), "1", ln, "C", true, 0, "")
	}
	p.pdf.SetTextColor(0, 0, 0)
	p.pdf.SetFont(fontFamily, "", 8)
	p.pdf.SetFillColor(245, 245, 245)
}

// tableRow writes one row; the first column is left-aligned, the rest centred.
func (p *page) tableRow(widths []float64, cells []string, row int) {
	fill := row%2 == 0
	for i, c := range cells {
		align, ln := "C", 0
		if i == 0 {
			align = "L"
		}
		if i == len(cells)-1 {
			ln = 1
		}
		p.pdf.CellFormat(widths[i], 6, p.tr(fit(c, widths[i])), "1", ln, align, fill, 0, "")
	}
}

func (p *page) paragraph(label, text string) {
	p.pdf.SetFont(fontFamily, "B", 10)
	p.cell(0, 6, label)
	p.pdf.Ln(6)
	p.pdf.SetFont(fontFamily, "", 10)
	if text == "" {
		text = "-"
	}
	p.pdf.MultiCell(0, 5, p.tr(text), "", "L", false)
	p.pdf.Ln(2)
}

func (p *page) footer(generatedAt time.Time) {
	p.pdf.Ln(6)
	p.pdf.SetFont(fontFamily, "I", 8)
	p.pdf.SetTextColor(100, 100, 100)
	p.cell(0, 5, "Document generated on: "+formatDate(generatedAt))
	p.pdf.SetTextColor(0, 0, 0)
}

func (p *page) document(name string) (Document, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("render pdf %s: %w", name, err)
	}
	return Document{Name: name, Ext: ".pdf", Body: buf.Bytes()}, nil
}

// fit keeps table cells on one line; roughly two characters per millimetre
// at the 8pt table font.
func fit(s string, width float64) string {
	return classify.Truncate(s, int(width*0.5))
}

func (r *PDFRenderer) Individual(rec evaluation.Record) (Document, error) {
	p := newPage("P", "Teacher Evaluation Report")

	p.field("Student:", fmt.Sprintf("%s (%s)", rec.StudentName, rec.StudentID))
	p.field("Teacher:", string(rec.Teacher))
	p.field("Subject:", rec.Subject)
	p.field("Section / Program:", fmt.Sprintf("%s / %s", rec.Section, rec.Program))
	p.field("Submitted:", formatDate(rec.SubmittedAt))

	widths := []float64{120, 70}
	for _, c := range categoryViews(rec) {
		p.heading(c.Label)
		p.tableHeader(widths, []string{"ITEM", "SCORE"})
		for i, v := range c.Items {
			p.tableRow(widths, []string{c.Labels[i], strconv.Itoa(v)}, i)
		}
		p.pdf.SetFont(fontFamily, "I", 9)
		p.cell(0, 6, fmt.Sprintf("Sum %d / %d, %s", c.Sum, c.MaxSum(), formatPercent(c.Percentage)))
		p.pdf.Ln(6)
	}

	avg := rec.Scores.Average()
	p.heading("Overall")
	p.field("Average:", fmt.Sprintf("%s (%s)", formatFivePoint(avg), FivePointLabel(avg)))

	p.heading("Comments")
	p.paragraph("Strengths", rec.PositiveComments)
	p.paragraph("Areas for improvement", rec.NegativeComments)

	p.footer(r.now())
	return p.document(StudentDocName(rec.StudentName, rec.StudentID))
}

func (r *PDFRenderer) Section(s aggregate.SectionSummary, group aggregate.TeacherProgramSummary) (Document, error) {
	p := newPage("P", fmt.Sprintf("Section Summary: %s %s", s.Section, s.Program))

	p.field("Teacher:", string(s.Teacher))
	p.field("Students:", strconv.Itoa(len(s.Students)))

	widths := []float64{10, 55, 30, 25, 35, 35}
	p.heading("Students")
	p.tableHeader(widths, []string{"#", "STUDENT", "ID", "AVERAGE", "RATING", "COMMENTS"})
	for i, st := range s.Students {
		p.tableRow(widths, []string{
			strconv.Itoa(i + 1),
			st.StudentName,
			st.StudentID,
			fmt.Sprintf("%.2f", st.Average),
			FivePointLabel(st.Average),
			st.Comments,
		}, i)
	}

	p.heading("Summary")
	p.field("Section average:", fmt.Sprintf("%s (%s)", formatFivePoint(s.Average), FivePointLabel(s.Average)))
	p.field("Program overall:", fmt.Sprintf("%s (%s), %d evaluations",
		formatPercent(group.OverallAverage), PercentLabel(group.OverallAverage), group.Count))

	if len(s.Comments) > 0 {
		p.heading("Comments")
		p.pdf.SetFont(fontFamily, "", 9)
		for _, c := range s.Comments {
			p.pdf.MultiCell(0, 5, p.tr("- "+c), "", "L", false)
		}
	}

	p.footer(r.now())
	return p.document(SectionSummaryName)
}

func (r *PDFRenderer) System(s aggregate.SystemSummary, generatedAt time.Time) (Document, error) {
	p := newPage("L", "Teacher Evaluation System Summary")

	p.field("Total evaluations:", strconv.Itoa(s.Evaluations))
	p.field("Teachers evaluated:", strconv.Itoa(s.Teachers))
	p.field("Programs:", strconv.Itoa(s.Programs))
	p.field("Global average:", fmt.Sprintf("%s (%s)", formatPercent(s.GlobalAverage), PercentLabel(s.GlobalAverage)))

	p.heading("By program")
	pw := []float64{60, 40, 40, 60}
	p.tableHeader(pw, []string{"PROGRAM", "EVALUATIONS", "AVERAGE", "RATING"})
	for i, b := range s.ByProgram {
		p.tableRow(pw, []string{string(b.Program), strconv.Itoa(b.Count), formatPercent(b.Average), PercentLabel(b.Average)}, i)
	}

	p.heading("By teacher")
	p.pdf.SetFont(fontFamily, "I", 8)
	for i, c := range evaluation.Categories {
		p.cell(65, 5, fmt.Sprintf("C%d: %s", i+1, c.Label))
	}
	p.pdf.Ln(7)

	tw := []float64{40, 22, 16, 20, 20, 20, 20, 20, 16, 16, 25, 14, 14, 14}
	p.tableHeader(tw, []string{"TEACHER", "PROGRAM", "N", "C1", "C2", "C3", "C4", "OVERALL", "MIN", "MAX", "RATING", "POS", "NEG", "NEU"})
	for i, g := range s.Groups {
		row := []string{string(g.Key.Teacher), string(g.Key.Program), strconv.Itoa(g.Count)}
		for _, c := range g.Categories {
			row = append(row, formatPercent(c.Percentage))
		}
		row = append(row,
			formatPercent(g.OverallAverage),
			formatPercent(g.MinPercentage),
			formatPercent(g.MaxPercentage),
			PercentLabel(g.OverallAverage),
			strconv.Itoa(g.Comments.Positive),
			strconv.Itoa(g.Comments.Negative),
			strconv.Itoa(g.Comments.Neutral),
		)
		p.tableRow(tw, row, i)
	}

	for _, g := range s.Groups {
		if len(g.Comments.Samples) == 0 {
			continue
		}
		p.heading(fmt.Sprintf("%s, %s: sample comments (%s positive, %s negative)",
			g.Key.Teacher, g.Key.Program,
			g.Comments.Percent(classify.Positive), g.Comments.Percent(classify.Negative)))
		p.pdf.SetFont(fontFamily, "", 9)
		for _, c := range g.Comments.Samples {
			p.pdf.MultiCell(0, 5, p.tr("- "+c), "", "L", false)
		}
	}

	p.footer(generatedAt)
	return p.document(SystemSummaryName)
}
