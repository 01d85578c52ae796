// Package feedback keeps the corpus of human department corrections that is
// replayed to the model as few-shot context.
package feedback

import (
	"context"
	"fmt"
	"strings"

	"classifybot/internal/domain"
	"classifybot/internal/logger"
	"classifybot/internal/storage"
)

const CollectionName = "feedback"

// NoFeedback is rendered in place of exemplar lines when the corpus is empty.
const NoFeedback = "none"

type Store struct {
	entries *storage.Collection[domain.FeedbackEntry]
}

func NewStore(backend storage.Backend) *Store {
	return &Store{entries: storage.NewCollection[domain.FeedbackEntry](backend, CollectionName)}
}

func (s *Store) Load(ctx context.Context) ([]domain.FeedbackEntry, error) {
	return s.entries.Load(ctx)
}

// Upsert records department for input, replacing any entry with exactly the
// same input text. Repeating an identical correction leaves the data as is.
func (s *Store) Upsert(ctx context.Context, input, department string) error {
	return s.entries.Mutate(ctx, func(entries []domain.FeedbackEntry) ([]domain.FeedbackEntry, bool) {
		for i := range entries {
			if entries[i].Input != input {
				continue
			}
			if entries[i].Department == department {
				return entries, false
			}
			logger.Info().
				Str("from", entries[i].Department).
				Str("to", department).
				Msg("feedback entry replaced")
			entries[i].Department = department
			return entries, true
		}
		logger.Info().Str("department", department).Int("corpus_size", len(entries)+1).Msg("feedback entry added")
		return append(entries, domain.FeedbackEntry{Input: input, Department: department}), true
	})
}

// RenderContext formats one exemplar line per entry, or NoFeedback.
func RenderContext(entries []domain.FeedbackEntry) string {
	if len(entries) == 0 {
		return NoFeedback
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- input: '%s' -> department: '%s'\n", e.Input, e.Department)
	}
	return b.String()
}
