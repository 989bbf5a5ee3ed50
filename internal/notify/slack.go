// Package notify announces finished report runs.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/godilite/evalreport/internal/service"
)

var ErrNotConfigured = errors.New("slack notifier is not configured")

type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts each run summary to one channel.
type SlackNotifier struct {
	api     poster
	channel string
	logger  *zap.Logger
}

type Option func(*slackOptions)

type slackOptions struct {
	apiURL string
}

// WithAPIURL points the client at another Slack API endpoint.
func WithAPIURL(url string) Option {
	return func(o *slackOptions) { o.apiURL = url }
}

func NewSlackNotifier(token, channel string, logger *zap.Logger, opts ...Option) (*SlackNotifier, error) {
	if token == "" || channel == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &slackOptions{}
	for _, opt := range opts {
		opt(o)
	}
	var clientOpts []slack.Option
	if o.apiURL != "" {
		clientOpts = append(clientOpts, slack.OptionAPIURL(o.apiURL))
	}
	return &SlackNotifier{
		api:     slack.New(token, clientOpts...),
		channel: channel,
		logger:  logger.Named("slack"),
	}, nil
}

func (n *SlackNotifier) NotifyRun(ctx context.Context, summary service.RunSummary) error {
	text := fmt.Sprintf("```\n%s\n```", service.FormatSummary(summary))
	if !summary.Succeeded() {
		text = ":warning: report run wrote nothing\n" + text
	}
	_, ts, err := n.api.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post run summary to %s: %w", n.channel, err)
	}
	n.logger.Debug("run summary posted", zap.String("run", summary.ID), zap.String("ts", ts))
	return nil
}
