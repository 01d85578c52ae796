// Package history keeps the most-recent-first log of classifications.
package history

import (
	"context"
	"time"

	"classifybot/internal/domain"
	"classifybot/internal/logger"
	"classifybot/internal/storage"

	"github.com/google/uuid"
)

const CollectionName = "history"

type Store struct {
	records *storage.Collection[domain.ClassificationRecord]
	now     func() time.Time
	newID   func() string
}

func NewStore(backend storage.Backend) *Store {
	return &Store{
		records: storage.NewCollection[domain.ClassificationRecord](backend, CollectionName),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Store) List(ctx context.Context) ([]domain.ClassificationRecord, error) {
	return s.records.Load(ctx)
}

// Get returns the record with id, if any.
func (s *Store) Get(ctx context.Context, id string) (domain.ClassificationRecord, bool, error) {
	records, err := s.records.Load(ctx)
	if err != nil {
		return domain.ClassificationRecord{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return domain.ClassificationRecord{}, false, nil
}

// Append records a classification at the front of the log and returns its id.
func (s *Store) Append(ctx context.Context, input string, result domain.PredictionResult) (string, error) {
	keywords := append([]string{}, result.Keywords...)
	record := domain.ClassificationRecord{
		ID:              s.newID(),
		Timestamp:       s.now().Truncate(time.Second),
		Input:           input,
		Summary:         result.Summary,
		Keywords:        keywords,
		FinalDepartment: result.TopDepartment(),
	}
	err := s.records.Mutate(ctx, func(records []domain.ClassificationRecord) ([]domain.ClassificationRecord, bool) {
		return append([]domain.ClassificationRecord{record}, records...), true
	})
	if err != nil {
		return "", err
	}
	logger.Info().
		Str("history_id", record.ID).
		Str("final_department", record.FinalDepartment).
		Msg("history record appended")
	return record.ID, nil
}

func (s *Store) UpdateKeywords(ctx context.Context, id string, keywords []string) error {
	if keywords == nil {
		keywords = []string{}
	}
	return s.update(ctx, id, func(r *domain.ClassificationRecord) {
		r.Keywords = append([]string{}, keywords...)
	})
}

func (s *Store) CorrectDepartment(ctx context.Context, id, department string) error {
	return s.update(ctx, id, func(r *domain.ClassificationRecord) {
		r.FinalDepartment = department
	})
}

// Delete removes the record with id, preserving the order of the rest.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.records.Mutate(ctx, func(records []domain.ClassificationRecord) ([]domain.ClassificationRecord, bool) {
		for i := range records {
			if records[i].ID == id {
				logger.Info().Str("history_id", id).Msg("history record deleted")
				return append(records[:i], records[i+1:]...), true
			}
		}
		logger.Debug().Str("history_id", id).Msg("history delete ignored, unknown id")
		return records, false
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.records.Mutate(ctx, func(records []domain.ClassificationRecord) ([]domain.ClassificationRecord, bool) {
		logger.Info().Int("removed", len(records)).Msg("history cleared")
		return []domain.ClassificationRecord{}, true
	})
}

// update applies fn to the record with id. Unknown ids leave the stored data
// untouched.
func (s *Store) update(ctx context.Context, id string, fn func(*domain.ClassificationRecord)) error {
	return s.records.Mutate(ctx, func(records []domain.ClassificationRecord) ([]domain.ClassificationRecord, bool) {
		for i := range records {
			if records[i].ID == id {
				fn(&records[i])
				return records, true
			}
		}
		logger.Debug().Str("history_id", id).Msg("history update ignored, unknown id")
		return records, false
	})
}
