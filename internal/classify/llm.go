package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const (
	DefaultLLMModel   = "claude-3-5-haiku-latest"
	defaultLLMTimeout = 10 * time.Second

	llmSystemPrompt = `You label student comments about a teacher. Comments may be in English, Tagalog or Taglish.
Answer with exactly one word: positive, negative or neutral.
If a comment contains both praise and criticism, answer positive.`
)

// CompleteFunc sends one prompt pair to a model and returns its text answer.
type CompleteFunc func(ctx context.Context, system, user string) (string, error)

// ContextBinder is implemented by classifiers whose calls can be cancelled.
// WithContext returns a classifier whose calls end when ctx does.
type ContextBinder interface {
	WithContext(ctx context.Context) Classifier
}

// LLMClassifier asks a language model for the label and falls back to
// another classifier whenever the call or the answer is unusable. The
// fallback is consulted first: a comment it already calls positive is
// positive without a model call, so mixed comments never lose to the model.
type LLMClassifier struct {
	complete CompleteFunc
	fallback Classifier
	timeout  time.Duration
	parent   context.Context
	logger   *zap.Logger
}

// NewLLMClassifier builds a classifier around complete. fallback must not be nil.
func NewLLMClassifier(complete CompleteFunc, fallback Classifier, logger *zap.Logger) *LLMClassifier {
	if complete == nil {
		panic("complete func must not be nil")
	}
	if fallback == nil {
		panic("fallback classifier must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMClassifier{
		complete: complete,
		fallback: fallback,
		timeout:  defaultLLMTimeout,
		parent:   context.Background(),
		logger:   logger.Named("llm-classifier"),
	}
}

// WithContext returns a copy whose model calls are cancelled with ctx.
func (c *LLMClassifier) WithContext(ctx context.Context) Classifier {
	bound := *c
	bound.parent = ctx
	return &bound
}

func (c *LLMClassifier) Classify(text string) Sentiment {
	local := c.fallback.Classify(text)
	if local == Positive {
		return Positive
	}
	if c.parent.Err() != nil {
		return local
	}

	ctx, cancel := context.WithTimeout(c.parent, c.timeout)
	defer cancel()

	answer, err := c.complete(ctx, llmSystemPrompt, text)
	if err != nil {
		c.logger.Warn("llm classification failed, using fallback", zap.Error(err))
		return local
	}
	s, ok := parseSentiment(answer)
	if !ok {
		c.logger.Warn("unrecognised llm label, using fallback", zap.String("answer", answer))
		return local
	}
	return s
}

func parseSentiment(answer string) (Sentiment, bool) {
	word := strings.ToLower(strings.Trim(strings.TrimSpace(answer), ".!\"'`"))
	switch Sentiment(word) {
	case Positive, Negative, Neutral:
		return Sentiment(word), true
	}
	return "", false
}

// AnthropicCompleter returns a CompleteFunc backed by the Anthropic Messages API.
func AnthropicCompleter(apiKey, model string) CompleteFunc {
	if model == "" {
		model = DefaultLLMModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return func(ctx context.Context, system, user string) (string, error) {
		message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: 8,
			System: []anthropic.TextBlockParam{
				{Text: system, CacheControl: anthropic.NewCacheControlEphemeralParam()},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("anthropic messages: %w", err)
		}
		for _, block := range message.Content {
			if block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("no text content in anthropic response")
	}
}
