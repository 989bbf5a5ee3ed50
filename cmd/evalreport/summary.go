package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/godilite/evalreport/internal/service"
)

const maxShown = 10

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#28916C"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#28916C"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9A400"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0413E")).Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func renderSummary(r service.RunSummary) string {
	var b strings.Builder

	status := okStyle.Render("completed")
	switch {
	case !r.Succeeded():
		status = errStyle.Render("nothing written")
	case len(r.Failures) > 0:
		status = warnStyle.Render("completed with failures")
	}
	b.WriteString(titleStyle.Render("Report run "+r.ID) + "  " + status + "\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	row("Admin", r.Admin)
	row("Evaluations", fmt.Sprintf("%d (%d teachers, %d sections)", r.Evaluations, r.Teachers, r.Sections))
	row("Written", fmt.Sprintf("%d documents, %d folders", r.Documents, r.Containers))
	if r.CSVLocation != "" {
		row("CSV", r.CSVLocation)
	}
	row("Duration", r.Duration.Round(time.Millisecond).String())

	if len(r.Skipped) > 0 {
		b.WriteString("\n" + warnStyle.Render(fmt.Sprintf("Skipped %d records", len(r.Skipped))) + "\n")
		for i, s := range r.Skipped {
			if i == maxShown {
				b.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Skipped)-i))
				break
			}
			b.WriteString("  " + s.Error() + "\n")
		}
	}
	if len(r.Failures) > 0 {
		b.WriteString("\n" + errStyle.Render(fmt.Sprintf("%d writes failed", len(r.Failures))) + "\n")
		for i, f := range r.Failures {
			if i == maxShown {
				b.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Failures)-i))
				break
			}
			b.WriteString("  " + f.Path + ": " + f.Reason + "\n")
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
