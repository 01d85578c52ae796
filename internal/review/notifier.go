// Package review routes classifications that need human attention to Slack.
package review

import (
	"context"
	"fmt"
	"strings"

	"classifybot/internal/domain"
	"classifybot/internal/logger"

	"github.com/slack-go/slack"
)

const inputPreviewRunes = 300

// Poster is the part of *slack.Client used here.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type Notifier struct {
	poster    Poster
	channelID string
}

func NewNotifier(poster Poster, channelID string) *Notifier {
	return &Notifier{poster: poster, channelID: channelID}
}

func (n *Notifier) NotifyDegraded(ctx context.Context, historyID, input string, result domain.PredictionResult) error {
	msg := formatDegradedMessage(historyID, input, result)
	if _, _, err := n.poster.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(msg, false)); err != nil {
		return fmt.Errorf("post review notice: %w", err)
	}
	logger.Info().Str("history_id", historyID).Str("channel", n.channelID).Msg("review notice posted")
	return nil
}

func formatDegradedMessage(historyID, input string, result domain.PredictionResult) string {
	var b strings.Builder
	b.WriteString(":warning: A classification needs review: the model did not return structured output.\n")
	fmt.Fprintf(&b, "*History ID:* `%s`\n", historyID)
	fmt.Fprintf(&b, "*Request:* %s\n", preview(input, inputPreviewRunes))
	if result.Summary != "" {
		fmt.Fprintf(&b, "*Model output:* %s\n", preview(result.Summary, inputPreviewRunes))
	}
	fmt.Fprintf(&b, "Correct it with `classifybot correct --id %s --department <name>`", historyID)
	return b.String()
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
