package models

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// EvaluationRow is one evaluations row joined with its teacher's display
// name. Every column stays nullable or raw until the service validates it, so
// one malformed row never aborts the scan of the others.
type EvaluationRow struct {
	ID               int64
	StudentID        sql.NullString
	StudentName      sql.NullString
	TeacherName      sql.NullString
	Subject          sql.NullString
	Section          sql.NullString
	Program          sql.NullString
	Scores           [20]Score
	PositiveComments sql.NullString
	NegativeComments sql.NullString
	SubmittedAt      Timestamp
}

// Score is a Likert column as the driver returned it. Valid is set only for
// whole numbers; anything else that is not NULL keeps its text in Raw.
type Score struct {
	Int64 int64
	Valid bool
	Raw   string
}

// Malformed reports a non-NULL value that is not a whole number.
func (s Score) Malformed() bool {
	return !s.Valid && s.Raw != ""
}

func (s *Score) Scan(src any) error {
	*s = Score{}
	switch v := src.(type) {
	case nil:
		return nil
	case int64:
		s.Int64, s.Valid = v, true
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			s.Int64, s.Valid = int64(v), true
		} else {
			s.Raw = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case []byte:
		s.parse(string(v))
	case string:
		s.parse(v)
	default:
		s.Raw = fmt.Sprint(src)
	}
	return nil
}

func (s *Score) parse(text string) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		s.Raw = text
		if s.Raw == "" {
			s.Raw = `""`
		}
		return
	}
	s.Int64, s.Valid = n, true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Timestamp scans the submission time whichever way the driver returns it:
// time.Time, or text and bytes in one of the common SQL layouts. A value in
// any other layout is kept in Raw with Valid unset.
type Timestamp struct {
	Time  time.Time
	Valid bool
	Raw   string
}

// Malformed reports a non-NULL value that matched no known layout.
func (t Timestamp) Malformed() bool {
	return !t.Valid && t.Raw != ""
}

func (t *Timestamp) Scan(src any) error {
	*t = Timestamp{}
	switch v := src.(type) {
	case nil:
	case time.Time:
		t.Time, t.Valid = v, true
	case string:
		t.parse(v)
	case []byte:
		t.parse(string(v))
	default:
		t.Raw = fmt.Sprint(src)
	}
	return nil
}

func (t *Timestamp) parse(s string) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = ts, true
			return
		}
	}
	t.Raw = s
	if t.Raw == "" {
		t.Raw = `""`
	}
}
