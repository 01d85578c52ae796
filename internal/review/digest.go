package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classifybot/internal/domain"
	"classifybot/internal/logger"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

const digestPreviewRunes = 80

type HistoryLister interface {
	List(ctx context.Context) ([]domain.ClassificationRecord, error)
}

// PendingReview returns the records whose final department is still a
// sentinel, in their stored order.
func PendingReview(records []domain.ClassificationRecord) []domain.ClassificationRecord {
	var out []domain.ClassificationRecord
	for _, r := range records {
		switch r.FinalDepartment {
		case domain.DepartmentNeedsReview, domain.DepartmentUndetermined:
			out = append(out, r)
		}
	}
	return out
}

func FormatDigest(pending []domain.ClassificationRecord, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	if len(pending) == 0 {
		return "No classifications are waiting for review."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*%d classification(s) waiting for review*\n", len(pending))
	for _, r := range pending {
		fmt.Fprintf(&b, "• `%s` %s [%s] %s\n",
			r.ID,
			r.Timestamp.In(loc).Format("2006-01-02 15:04"),
			r.FinalDepartment,
			preview(r.Input, digestPreviewRunes),
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildDigest loads the history and formats the pending records.
func BuildDigest(ctx context.Context, hist HistoryLister, loc *time.Location) (string, int, error) {
	records, err := hist.List(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("load history: %w", err)
	}
	pending := PendingReview(records)
	return FormatDigest(pending, loc), len(pending), nil
}

// PostDigest posts the digest to channelID. Nothing is posted when no
// records are pending.
func PostDigest(ctx context.Context, poster Poster, channelID string, hist HistoryLister, loc *time.Location) (int, error) {
	text, pending, err := BuildDigest(ctx, hist, loc)
	if err != nil {
		return 0, err
	}
	if pending == 0 {
		logger.Info().Msg("review digest skipped, nothing pending")
		return 0, nil
	}
	if _, _, err := poster.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false)); err != nil {
		return pending, fmt.Errorf("post review digest: %w", err)
	}
	logger.Info().Int("pending", pending).Str("channel", channelID).Msg("review digest posted")
	return pending, nil
}

func ParseSchedule(schedule string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid review_digest_schedule '%s': %w", schedule, err)
	}
	return sched, nil
}

// RunDigestScheduler calls run at every activation of schedule until ctx is
// done.
func RunDigestScheduler(ctx context.Context, schedule string, loc *time.Location, run func(context.Context)) error {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return err
	}
	if loc == nil {
		loc = time.Local
	}
	logger.Info().Str("cron", schedule).Msg("review digest scheduled")

	for {
		now := time.Now().In(loc)
		next := sched.Next(now)
		wait := next.Sub(now)
		logger.Info().
			Str("next", next.Format("Mon Jan 2 15:04")).
			Dur("in", wait.Round(time.Minute)).
			Msg("next review digest")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		run(ctx)
	}
}
