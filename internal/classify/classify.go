// Package classify tags free-text evaluation comments as positive, negative
// or neutral.
package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Classifier assigns a sentiment to a single comment.
type Classifier interface {
	Classify(text string) Sentiment
}

const (
	// DefaultSampleSize is how many raw comments an analysis keeps.
	DefaultSampleSize = 5
	sampleMaxRunes    = 100
	ellipsis          = "..."
)

// CommentAnalysis counts comments per sentiment and keeps a short sample.
type CommentAnalysis struct {
	Total    int
	Positive int
	Negative int
	Neutral  int
	Samples  []string
}

// Analyze classifies every non-empty comment. At most sampleSize comments
// are retained, in input order, truncated to 100 characters.
func Analyze(c Classifier, comments []string, sampleSize int) CommentAnalysis {
	a := CommentAnalysis{Samples: []string{}}
	for _, text := range comments {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		a.Total++
		switch c.Classify(text) {
		case Positive:
			a.Positive++
		case Negative:
			a.Negative++
		default:
			a.Neutral++
		}
		if len(a.Samples) < sampleSize {
			a.Samples = append(a.Samples, Truncate(text, sampleMaxRunes))
		}
	}
	return a
}

// Count returns the number of comments tagged s.
func (a CommentAnalysis) Count(s Sentiment) int {
	switch s {
	case Positive:
		return a.Positive
	case Negative:
		return a.Negative
	default:
		return a.Neutral
	}
}

// Percent formats the share of comments tagged s, "0%" when there are none.
func (a CommentAnalysis) Percent(s Sentiment) string {
	if a.Total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(a.Count(s))/float64(a.Total)*100)
}

// Truncate shortens text to max runes, marking the cut with an ellipsis.
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + ellipsis
}
