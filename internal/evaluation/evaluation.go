// Package evaluation defines the evaluation record submitted by a student
// for one teacher and the fixed four-category rubric it is scored against.
package evaluation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// ItemCount is the number of Likert items on every evaluation form.
	ItemCount = 20
	// MaxScore is the highest value a single item can take.
	MaxScore = 5
	// MinScore is the lowest value a single item can take.
	MinScore = 1
)

// Program is the academic track an offering belongs to.
type Program string

const (
	ProgramSHS     Program = "SHS"
	ProgramCollege Program = "COLLEGE"
)

var ErrUnknownProgram = errors.New("unknown program")

// ParseProgram normalizes a stored program code.
func ParseProgram(s string) (Program, error) {
	switch p := Program(strings.ToUpper(strings.TrimSpace(s))); p {
	case ProgramSHS, ProgramCollege:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProgram, s)
	}
}

// TeacherID identifies a teacher. The evaluation store only exposes the
// display name, so records are grouped by the literal name string and two
// spellings of the same person end up in separate groups.
type TeacherID string

// Record is one student's complete rating of one teacher for one offering.
type Record struct {
	StudentID        string    `validate:"required"`
	StudentName      string    `validate:"required"`
	Teacher          TeacherID `validate:"required"`
	Subject          string
	Section          string  `validate:"required"`
	Program          Program `validate:"oneof=SHS COLLEGE"`
	Scores           Scores  `validate:"dive,min=1,max=5"`
	PositiveComments string
	NegativeComments string
	SubmittedAt      time.Time
}

var validate = validator.New()

// Validate reports the first structural problem with r, if any.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	return nil
}

// CommentTexts returns the non-empty comment fields, positive first.
func (r Record) CommentTexts() []string {
	out := make([]string, 0, 2)
	for _, c := range []string{r.PositiveComments, r.NegativeComments} {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Comments joins the non-empty comment fields into the single text used by
// the flat export.
func (r Record) Comments() string {
	return strings.Join(r.CommentTexts(), " | ")
}
