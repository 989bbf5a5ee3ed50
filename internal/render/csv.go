package render

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/godilite/evalreport/internal/evaluation"
)

// utf8BOM lets spreadsheet applications detect the encoding.
const utf8BOM = "\ufeff"

const csvTimeLayout = "2006-01-02 15:04:05"

// CSVHeader returns the export column names.
func CSVHeader() []string {
	header := []string{"Teacher Name", "Subject", "Student ID", "Student Name", "Section", "Program"}
	header = append(header, evaluation.ItemLabels()...)
	return append(header, "Comments", "Evaluation Date", "Average")
}

// WriteCSV writes every record as one row, prefixed with a UTF-8 byte-order mark.
func WriteCSV(w io.Writer, records []evaluation.Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(CSVHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("write row for student %s: %w", r.StudentID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bw.Flush()
}

func csvRow(r evaluation.Record) []string {
	row := make([]string, 0, 6+evaluation.ItemCount+3)
	row = append(row, string(r.Teacher), r.Subject, r.StudentID, r.StudentName, r.Section, string(r.Program))
	for _, v := range r.Scores {
		row = append(row, strconv.Itoa(v))
	}
	return append(row, r.Comments(), formatTime(r.SubmittedAt), fmt.Sprintf("%.2f", r.Scores.Average()))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(csvTimeLayout)
}
