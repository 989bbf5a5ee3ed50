package classify

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Keywords is the swappable configuration behind KeywordClassifier.
type Keywords struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// DefaultKeywords are the built-in English and Tagalog lists.
func DefaultKeywords() Keywords {
	return Keywords{
		Positive: []string{
			"good", "great", "excellent", "best", "helpful", "kind", "clear", "patient",
			"amazing", "awesome", "love", "nice", "approachable", "knowledgeable", "inspiring",
			"magaling", "mabait", "maayos", "malinaw", "matulungin", "masipag", "salamat", "galing",
		},
		Negative: []string{
			"bad", "poor", "late", "boring", "rude", "unclear", "strict", "absent", "lazy",
			"confusing", "improve", "never", "difficult",
			"pangit", "masungit", "mabagal", "hindi", "nakakainip", "palaging late", "magulo",
		},
	}
}

// KeywordClassifier matches lower-cased substrings. The positive list is
// scanned first, so a comment containing words from both lists is positive.
type KeywordClassifier struct {
	positive []string
	negative []string
}

// NewKeywordClassifier normalizes kw; empty entries are dropped.
func NewKeywordClassifier(kw Keywords) *KeywordClassifier {
	return &KeywordClassifier{
		positive: normalize(kw.Positive),
		negative: normalize(kw.Negative),
	}
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func (k *KeywordClassifier) Classify(text string) Sentiment {
	lower := strings.ToLower(text)
	for _, w := range k.positive {
		if strings.Contains(lower, w) {
			return Positive
		}
	}
	for _, w := range k.negative {
		if strings.Contains(lower, w) {
			return Negative
		}
	}
	return Neutral
}

// LoadKeywords reads a YAML keyword file with `positive` and `negative` lists.
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords %s: %w", path, err)
	}
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords %s: %w", path, err)
	}
	if len(kw.Positive) == 0 && len(kw.Negative) == 0 {
		return Keywords{}, fmt.Errorf("keywords %s: both lists are empty", path)
	}
	return kw, nil
}

// Reloadable swaps its underlying classifier atomically, so a run in
// progress keeps classifying while the keyword file is replaced.
type Reloadable struct {
	current atomic.Pointer[KeywordClassifier]
}

func NewReloadable(initial *KeywordClassifier) *Reloadable {
	r := &Reloadable{}
	r.current.Store(initial)
	return r
}

func (r *Reloadable) Classify(text string) Sentiment {
	return r.current.Load().Classify(text)
}

// Swap installs a classifier built from kw.
func (r *Reloadable) Swap(kw Keywords) {
	r.current.Store(NewKeywordClassifier(kw))
}
