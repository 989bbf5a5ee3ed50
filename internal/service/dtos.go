package service

import (
	"fmt"
	"strings"
	"time"
)

// Admin is the authenticated administrator starting a run.
type Admin struct {
	ID   string
	Name string
}

func (a Admin) Authenticated() bool {
	return strings.TrimSpace(a.ID) != ""
}

func (a Admin) String() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// RunSummary reports what a run produced and what it could not.
type RunSummary struct {
	ID          string        `json:"id"`
	Admin       string        `json:"admin"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	Evaluations int           `json:"evaluations"`
	Teachers    int           `json:"teachers"`
	Sections    int           `json:"sections"`
	Containers  int           `json:"containers"`
	Documents   int           `json:"documents"`
	CSVLocation string        `json:"csv_location"`
	Skipped     []InputError  `json:"skipped"`
	Failures    []WriteError  `json:"failures"`
	Duration    time.Duration `json:"duration_ns"`
}

// Succeeded reports whether at least one write went through.
func (r RunSummary) Succeeded() bool {
	return r.Documents+r.Containers > 0
}

const maxListedProblems = 10

// FormatSummary renders a summary as plain text for the CLI and chat notifications.
func FormatSummary(r RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report run %s by %s\n", r.ID, r.Admin)
	fmt.Fprintf(&b, "Evaluations: %d (teachers %d, sections %d)\n", r.Evaluations, r.Teachers, r.Sections)
	fmt.Fprintf(&b, "Written: %d documents, %d folders\n", r.Documents, r.Containers)
	if r.CSVLocation != "" {
		fmt.Fprintf(&b, "CSV: %s\n", r.CSVLocation)
	}

	fmt.Fprintf(&b, "Skipped records: %d\n", len(r.Skipped))
	for i, s := range r.Skipped {
		if i == maxListedProblems {
			fmt.Fprintf(&b, "  ... and %d more\n", len(r.Skipped)-i)
			break
		}
		fmt.Fprintf(&b, "  - %s\n", s.Error())
	}

	fmt.Fprintf(&b, "Failures: %d\n", len(r.Failures))
	for i, f := range r.Failures {
		if i == maxListedProblems {
			fmt.Fprintf(&b, "  ... and %d more\n", len(r.Failures)-i)
			break
		}
		fmt.Fprintf(&b, "  - %s: %s\n", f.Path, f.Reason)
	}

	fmt.Fprintf(&b, "Duration: %s", r.Duration.Round(time.Millisecond))
	return b.String()
}
