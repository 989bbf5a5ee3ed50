package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(v int) Scores {
	var s Scores
	for i := range s {
		s[i] = v
	}
	return s
}

func validRecord() Record {
	return Record{
		StudentID:   "2024-0001",
		StudentName: "Ana Cruz",
		Teacher:     "Mr. Reyes",
		Section:     "STEM-11A",
		Program:     ProgramSHS,
		Scores:      uniform(4),
		SubmittedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestParseProgram(t *testing.T) {
	cases := []struct {
		in      string
		want    Program
		wantErr bool
	}{
		{in: "SHS", want: ProgramSHS},
		{in: " college ", want: ProgramCollege},
		{in: "Shs", want: ProgramSHS},
		{in: "GRAD", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseProgram(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnknownProgram)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoresArithmetic(t *testing.T) {
	t.Run("all fives", func(t *testing.T) {
		s := uniform(5)
		assert.Equal(t, 100, s.Sum())
		assert.Equal(t, 5.0, s.Average())
		assert.Equal(t, 100.0, s.Percentage())
	})

	t.Run("all ones", func(t *testing.T) {
		s := uniform(1)
		assert.Equal(t, 20, s.Sum())
		assert.Equal(t, 1.0, s.Average())
		assert.Equal(t, 20.0, s.Percentage())
	})

	t.Run("category sums follow rubric order", func(t *testing.T) {
		var s Scores
		for i := range s {
			s[i] = i%5 + 1
		}
		sums := s.CategorySums()
		total := 0
		for _, v := range sums {
			total += v
		}
		assert.Equal(t, s.Sum(), total)
		assert.Equal(t, 1+2+3+4+5+1, sums[0])
		assert.Len(t, s.CategoryItems(1), 4)
		assert.Len(t, s.CategoryItems(3), 6)
	})
}

func TestCategoryScores(t *testing.T) {
	s := uniform(3)
	s[0] = 5

	scores := s.CategoryScores()
	require.Len(t, scores, 4)

	for i, cs := range scores {
		assert.Equal(t, Categories[i].Label, cs.Label)
		assert.Equal(t, Categories[i].Items, cs.Count)
		assert.InDelta(t, float64(cs.Sum)/float64(cs.Count), cs.Average, 1e-9)
		assert.InDelta(t, cs.Average/5*100, cs.Percentage, 1e-9)
		assert.GreaterOrEqual(t, cs.Percentage, 0.0)
		assert.LessOrEqual(t, cs.Percentage, 100.0)
	}
	assert.Equal(t, 20, scores[0].Sum)
	assert.Equal(t, 30, scores[0].MaxSum())
}

func TestNewCategoryScoreZeroCount(t *testing.T) {
	cs := NewCategoryScore("Empty", 0, 0)
	assert.Equal(t, 0.0, cs.Average)
	assert.Equal(t, 0.0, cs.Percentage)
}

func TestItemLabelsAndColumns(t *testing.T) {
	labels := ItemLabels()
	cols := ItemColumns()

	require.Len(t, labels, ItemCount)
	require.Len(t, cols, ItemCount)
	assert.Equal(t, "Q1.1", labels[0])
	assert.Equal(t, "Q1.6", labels[5])
	assert.Equal(t, "Q2.1", labels[6])
	assert.Equal(t, "Q4.6", labels[19])
	assert.Equal(t, "q1_1", cols[0])
	assert.Equal(t, "q4_6", cols[19])
}

func TestRecordValidate(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		assert.NoError(t, validRecord().Validate())
	})

	t.Run("score out of range", func(t *testing.T) {
		r := validRecord()
		r.Scores[7] = 6
		err := r.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Scores[7]")
	})

	t.Run("zero score is rejected", func(t *testing.T) {
		r := validRecord()
		r.Scores[0] = 0
		assert.Error(t, r.Validate())
	})

	t.Run("unknown program", func(t *testing.T) {
		r := validRecord()
		r.Program = "GRAD"
		assert.Error(t, r.Validate())
	})

	t.Run("missing teacher", func(t *testing.T) {
		r := validRecord()
		r.Teacher = ""
		assert.Error(t, r.Validate())
	})
}

func TestRecordComments(t *testing.T) {
	r := validRecord()
	assert.Equal(t, "", r.Comments())
	assert.Empty(t, r.CommentTexts())

	r.PositiveComments = "  Explains lessons clearly and patiently every day.  "
	r.NegativeComments = "Sometimes arrives late to the afternoon session."
	assert.Equal(t, []string{
		"Explains lessons clearly and patiently every day.",
		"Sometimes arrives late to the afternoon session.",
	}, r.CommentTexts())
	assert.Equal(t, "Explains lessons clearly and patiently every day. | Sometimes arrives late to the afternoon session.", r.Comments())
}
