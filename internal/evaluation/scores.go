package evaluation

import "fmt"

// Category is one of the four fixed rubric groupings.
type Category struct {
	Label string
	Items int
}

// Categories lists the rubric in form order. The item counts add up to ItemCount.
var Categories = [4]Category{
	{Label: "Teaching Competence", Items: 6},
	{Label: "Management Skills", Items: 4},
	{Label: "Guidance Skills", Items: 4},
	{Label: "Personal & Social Qualities", Items: 6},
}

// Scores holds the twenty item ratings in form order.
type Scores [ItemCount]int

// Sum adds up every item.
func (s Scores) Sum() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Average is the mean item score on the five-point scale.
func (s Scores) Average() float64 {
	return float64(s.Sum()) / ItemCount
}

// Percentage is the average expressed on a 0-100 scale.
func (s Scores) Percentage() float64 {
	return s.Average() / MaxScore * 100
}

// CategorySums returns the raw sum of each category in rubric order.
func (s Scores) CategorySums() [len(Categories)]int {
	var sums [len(Categories)]int
	idx := 0
	for c, cat := range Categories {
		for i := 0; i < cat.Items; i++ {
			sums[c] += s[idx]
			idx++
		}
	}
	return sums
}

// CategoryScores derives the per-category table for a single evaluation.
func (s Scores) CategoryScores() []CategoryScore {
	sums := s.CategorySums()
	out := make([]CategoryScore, len(Categories))
	for c, cat := range Categories {
		out[c] = NewCategoryScore(cat.Label, sums[c], cat.Items)
	}
	return out
}

// CategoryItems returns the slice of s belonging to category c.
func (s Scores) CategoryItems(c int) []int {
	start := 0
	for i := 0; i < c; i++ {
		start += Categories[i].Items
	}
	return s[start : start+Categories[c].Items]
}

// CategoryScore summarises one category over Count item scores.
type CategoryScore struct {
	Label      string
	Sum        int
	Count      int
	Average    float64
	Percentage float64
}

// NewCategoryScore computes the average and percentage for sum over count items.
func NewCategoryScore(label string, sum, count int) CategoryScore {
	cs := CategoryScore{Label: label, Sum: sum, Count: count}
	if count > 0 {
		cs.Average = float64(sum) / float64(count)
		cs.Percentage = cs.Average / MaxScore * 100
	}
	return cs
}

// MaxSum is the best possible sum for the category.
func (c CategoryScore) MaxSum() int {
	return c.Count * MaxScore
}

// ItemLabels returns the export column names Q1.1 through Q4.6.
func ItemLabels() []string {
	labels := make([]string, 0, ItemCount)
	for c, cat := range Categories {
		for i := 1; i <= cat.Items; i++ {
			labels = append(labels, fmt.Sprintf("Q%d.%d", c+1, i))
		}
	}
	return labels
}

// ItemColumns returns the storage column names q1_1 through q4_6.
func ItemColumns() []string {
	cols := make([]string, 0, ItemCount)
	for c, cat := range Categories {
		for i := 1; i <= cat.Items; i++ {
			cols = append(cols, fmt.Sprintf("q%d_%d", c+1, i))
		}
	}
	return cols
}
