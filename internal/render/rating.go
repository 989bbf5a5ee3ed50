package render

type threshold struct {
	min   float64
	label string
}

// Highest first; the first threshold reached wins.
var percentThresholds = []threshold{
	{90, "Excellent"},
	{80, "Very Good"},
	{70, "Good"},
	{60, "Satisfactory"},
}

var fivePointThresholds = []threshold{
	{4.5, "Outstanding"},
	{4.0, "Very Satisfactory"},
	{3.5, "Good/Satisfactory"},
	{2.5, "Fair"},
}

const needsImprovement = "Needs Improvement"

// PercentLabel maps a 0-100 percentage to its qualitative rating.
func PercentLabel(p float64) string {
	return label(percentThresholds, p)
}

// FivePointLabel maps a five-point average to the label used in the
// per-evaluation view. It is a different scale from PercentLabel.
func FivePointLabel(avg float64) string {
	return label(fivePointThresholds, avg)
}

func label(ts []threshold, v float64) string {
	for _, t := range ts {
		if v >= t.min {
			return t.label
		}
	}
	return needsImprovement
}
