package render

import (
	"regexp"
	"strings"

	"github.com/godilite/evalreport/internal/evaluation"
)

const (
	CSVName            = "All_Evaluations.csv"
	SystemSummaryName  = "System_Summary"
	SectionSummaryName = "Section_Summary"
)

var (
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9 _.\-]`)
	dotRuns         = regexp.MustCompile(`\.{2,}`)
	wordFinalDots   = regexp.MustCompile(`\.+(\s|$)`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// SanitizeName turns a display name into a folder or file name. Only
// letters, digits, space, hyphen, underscore and dot survive. Dots that end
// a word are dropped, other dot runs shrink to one dot, and whitespace runs
// become a single underscore. The result never contains "..".
func SanitizeName(s string) string {
	s = disallowedChars.ReplaceAllString(s, "")
	s = dotRuns.ReplaceAllString(s, ".")
	s = wordFinalDots.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	s = whitespaceRuns.ReplaceAllString(s, "_")
	if s == "" {
		return "Unnamed"
	}
	return s
}

// TeacherDir names the folder holding a teacher's reports.
func TeacherDir(t evaluation.TeacherID) string {
	return SanitizeName(string(t))
}

// SectionDir names the folder for one section-program pair.
func SectionDir(section string, program evaluation.Program) string {
	return SanitizeName(section + " " + string(program))
}

// StudentDocName names an individual report, unique per student within a section.
func StudentDocName(studentName, studentID string) string {
	return SanitizeName(studentName + " " + studentID)
}
