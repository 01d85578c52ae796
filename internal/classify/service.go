// Package classify runs the classification feedback loop: compose a prompt
// from the knowledge base and past corrections, ask the model, interpret the
// answer and record it.
package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"classifybot/internal/domain"
	"classifybot/internal/feedback"
	"classifybot/internal/history"
	"classifybot/internal/integrations/llm"
	"classifybot/internal/knowledge"
	"classifybot/internal/logger"
	"classifybot/internal/prompt"
)

const defaultMaxContentChars = 20000

// ReviewNotifier is told about classifications that need a human look.
type ReviewNotifier interface {
	NotifyDegraded(ctx context.Context, historyID, input string, result domain.PredictionResult) error
}

type Service struct {
	completer       llm.Completer
	kb              knowledge.Base
	feedback        *feedback.Store
	history         *history.Store
	notifier        ReviewNotifier
	exampleLimit    int
	maxContentChars int
}

type Option func(*Service)

func WithReviewNotifier(n ReviewNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithFeedbackExampleLimit renders only the k corrections most similar to
// the request. Zero renders every correction.
func WithFeedbackExampleLimit(k int) Option {
	return func(s *Service) { s.exampleLimit = k }
}

func WithMaxContentChars(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxContentChars = n
		}
	}
}

func NewService(completer llm.Completer, kb knowledge.Base, fb *feedback.Store, hist *history.Store, opts ...Option) *Service {
	s := &Service{
		completer:       completer,
		kb:              kb,
		feedback:        fb,
		history:         hist,
		maxContentChars: defaultMaxContentChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Result struct {
	Prediction domain.PredictionResult `json:"prediction"`
	HistoryID  string                  `json:"history_id"`
	Degraded   bool                    `json:"degraded"`
}

// Classify predicts departments for content and appends the outcome to the
// history. Completion and parse failures are returned and not recorded.
func (s *Service) Classify(ctx context.Context, content string) (Result, error) {
	if err := s.validateContent(content); err != nil {
		return Result{}, err
	}

	entries, err := s.feedback.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load feedback: %w", err)
	}
	selected := feedback.SelectRelevant(entries, content, s.exampleLimit)

	p := prompt.Compose(prompt.Input{
		Departments: s.kb.Departments,
		Regulation:  s.kb.Regulation,
		Feedback:    feedback.RenderContext(selected),
		Query:       content,
	})
	logger.Debug().
		Int("feedback_total", len(entries)).
		Int("feedback_used", len(selected)).
		Int("prompt_chars", len(p)).
		Msg("classify prompt composed")

	raw, err := s.completer.Complete(ctx, p)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCompletion, err)
	}

	out := ParseResponse(raw)
	switch out.Kind {
	case domain.OutcomeFailure:
		logger.Warn().Err(out.Err).Int("response_chars", len(raw)).Msg("classify response rejected")
		return Result{}, out.Err
	case domain.OutcomeDegraded:
		logger.Warn().Int("response_chars", len(raw)).Msg("classify response had no JSON object, recording for review")
	}

	id, err := s.history.Append(ctx, content, out.Result)
	if err != nil {
		return Result{}, fmt.Errorf("record classification: %w", err)
	}

	degraded := out.Kind == domain.OutcomeDegraded
	if degraded && s.notifier != nil {
		if err := s.notifier.NotifyDegraded(ctx, id, content, out.Result); err != nil {
			logger.Error().Err(err).Str("history_id", id).Msg("review notification failed")
		}
	}
	return Result{Prediction: out.Result, HistoryID: id, Degraded: degraded}, nil
}

// Correct stores department as the answer for content and, when historyID is
// set, as that record's final department. An empty content with a known
// historyID uses the record's input.
func (s *Service) Correct(ctx context.Context, historyID, content, department string) error {
	department = strings.TrimSpace(department)
	if department == "" {
		return ErrDepartmentRequired
	}
	if content == "" && historyID != "" {
		record, ok, err := s.history.Get(ctx, historyID)
		if err != nil {
			return fmt.Errorf("look up history %s: %w", historyID, err)
		}
		if ok {
			content = record.Input
		}
	}
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}

	if err := s.feedback.Upsert(ctx, content, department); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	if historyID != "" {
		if err := s.history.CorrectDepartment(ctx, historyID, department); err != nil {
			return fmt.Errorf("correct history %s: %w", historyID, err)
		}
	}
	logger.Info().Str("history_id", historyID).Str("department", department).Msg("correction saved")
	return nil
}

func (s *Service) UpdateKeywords(ctx context.Context, historyID string, keywords []string) error {
	if historyID == "" {
		return ErrHistoryIDRequired
	}
	return s.history.UpdateKeywords(ctx, historyID, keywords)
}

func (s *Service) DeleteHistoryEntry(ctx context.Context, historyID string) error {
	if historyID == "" {
		return ErrHistoryIDRequired
	}
	return s.history.Delete(ctx, historyID)
}

func (s *Service) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

func (s *Service) ListHistory(ctx context.Context) ([]domain.ClassificationRecord, error) {
	return s.history.List(ctx)
}

func (s *Service) ListFeedback(ctx context.Context) ([]domain.FeedbackEntry, error) {
	return s.feedback.Load(ctx)
}

func (s *Service) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if !utf8.ValidString(content) {
		return ErrInvalidEncoding
	}
	if n := utf8.RuneCountInString(content); n > s.maxContentChars {
		return fmt.Errorf("%w: %d > %d characters", ErrContentTooLong, n, s.maxContentChars)
	}
	return nil
}
