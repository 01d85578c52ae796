package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"classifybot/internal/domain"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postedMessage struct {
	channel string
	text    string
}

type fakePoster struct {
	posts []postedMessage
	err   error
}

func (f *fakePoster) PostMessageContext(_ context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", "", err
	}
	f.posts = append(f.posts, postedMessage{channel: channelID, text: values.Get("text")})
	return channelID, "1700000000.000100", f.err
}

type staticHistory struct {
	records []domain.ClassificationRecord
	err     error
}

func (s staticHistory) List(context.Context) ([]domain.ClassificationRecord, error) {
	return s.records, s.err
}

func TestNotifyDegradedPostsToChannel(t *testing.T) {
	poster := &fakePoster{}
	n := NewNotifier(poster, "C123")

	err := n.NotifyDegraded(context.Background(), "id-1", "Request\nX", domain.PredictionResult{Summary: "raw model text"})
	require.NoError(t, err)

	require.Len(t, poster.posts, 1)
	assert.Equal(t, "C123", poster.posts[0].channel)
	assert.Contains(t, poster.posts[0].text, "`id-1`")
	assert.Contains(t, poster.posts[0].text, "*Request:* Request X")
	assert.Contains(t, poster.posts[0].text, "raw model text")
}

func TestNotifyDegradedWrapsPostError(t *testing.T) {
	poster := &fakePoster{err: errors.New("channel_not_found")}
	err := NewNotifier(poster, "C123").NotifyDegraded(context.Background(), "id-1", "x", domain.PredictionResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestPreviewTruncatesByCharacter(t *testing.T) {
	assert.Equal(t, "a b", preview("a\n\tb", 10))
	assert.Equal(t, "가나…", preview("가나다라", 2))
}

func TestPendingReview(t *testing.T) {
	records := []domain.ClassificationRecord{
		{ID: "1", FinalDepartment: "Logistics"},
		{ID: "2", FinalDepartment: domain.DepartmentNeedsReview},
		{ID: "3", FinalDepartment: domain.DepartmentUndetermined},
	}
	pending := PendingReview(records)
	require.Len(t, pending, 2)
	assert.Equal(t, "2", pending[0].ID)
	assert.Equal(t, "3", pending[1].ID)
}

func TestFormatDigest(t *testing.T) {
	assert.Equal(t, "No classifications are waiting for review.", FormatDigest(nil, time.UTC))

	got := FormatDigest([]domain.ClassificationRecord{{
		ID:              "abc",
		Timestamp:       time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC),
		Input:           "drone budget",
		FinalDepartment: domain.DepartmentNeedsReview,
	}}, time.UTC)

	assert.True(t, strings.HasPrefix(got, "*1 classification(s) waiting for review*"))
	assert.Contains(t, got, "• `abc` 2026-03-02 08:30 [needs-review] drone budget")
}

func TestPostDigestSkipsWhenNothingPending(t *testing.T) {
	poster := &fakePoster{}
	hist := staticHistory{records: []domain.ClassificationRecord{{ID: "1", FinalDepartment: "Logistics"}}}

	n, err := PostDigest(context.Background(), poster, "C1", hist, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, poster.posts)
}

func TestPostDigestPostsPending(t *testing.T) {
	poster := &fakePoster{}
	hist := staticHistory{records: []domain.ClassificationRecord{
		{ID: "1", FinalDepartment: domain.DepartmentUndetermined, Input: "x"},
	}}

	n, err := PostDigest(context.Background(), poster, "C1", hist, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, poster.posts, 1)
	assert.Contains(t, poster.posts[0].text, "`1`")
}

func TestBuildDigestPropagatesHistoryError(t *testing.T) {
	_, _, err := BuildDigest(context.Background(), staticHistory{err: errors.New("disk")}, time.UTC)
	require.Error(t, err)
}

func TestParseSchedule(t *testing.T) {
	_, err := ParseSchedule("0 9 * * 1-5")
	require.NoError(t, err)

	_, err = ParseSchedule("every morning")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review_digest_schedule")
}

func TestRunDigestSchedulerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunDigestScheduler(ctx, "0 9 * * *", time.UTC, func(context.Context) {
		t.Fatal("run must not be called after cancel")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDigestSchedulerRejectsBadSchedule(t *testing.T) {
	err := RunDigestScheduler(context.Background(), "nope", time.UTC, func(context.Context) {})
	require.Error(t, err)
}
