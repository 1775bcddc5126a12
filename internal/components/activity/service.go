package activity

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrasnagy-data/weekplan/internal/shared/events"
	"github.com/andrasnagy-data/weekplan/internal/shared/metrics"
)

const publishTimeout = 5 * time.Second

type (
	servicer interface {
		CreateActivity(ctx context.Context, req CreateActivityIn) (*Activity, error)
		UpdateActivity(ctx context.Context, id string, req UpdateActivityIn) (*Activity, error)
		DeleteActivity(ctx context.Context, id string) error
		GetActivities(ctx context.Context) ([]Activity, error)
		GetActivityByID(ctx context.Context, id string) (*Activity, error)
		GetBoard(ctx context.Context) ([]Column, error)
	}

	service struct {
		store     Store
		publisher events.Publisher
		logger    zerolog.Logger
		now       func() time.Time
	}
)

func NewService(store Store, publisher events.Publisher, logger zerolog.Logger) servicer {
	return &service{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "activity").Logger(),
		now:       time.Now,
	}
}

// CreateActivity validates and inserts a new activity. Both timestamps are set to the current instant.
func (s *service) CreateActivity(ctx context.Context, req CreateActivityIn) (*Activity, error) {
	req, err := req.normalize()
	if err != nil {
		metrics.RecordMutation("create", outcomeOf(err))
		return nil, err
	}

	now := s.now().UnixMilli()
	doc := Activity{
		Title:       req.Title,
		Description: req.Description,
		Day:         req.Day,
		Time:        req.Time,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}

	id, err := s.store.Insert(ctx, doc)
	metrics.RecordMutation("create", outcomeOf(err))
	if err != nil {
		return nil, err
	}
	doc.ID = id

	s.logger.Debug().Str("id", id).Str("day", string(doc.Day)).Str("time", doc.Time).Msg("Activity created")
	s.publish(ctx, events.TypeActivityCreated, doc.ID, doc.Day)
	return &doc, nil
}

// UpdateActivity merges title, description and time into the stored activity and refreshes updatedAt.
// Day and createdAt are never touched.
func (s *service) UpdateActivity(ctx context.Context, id string, req UpdateActivityIn) (*Activity, error) {
	req, err := req.normalize()
	if err != nil {
		metrics.RecordMutation("update", outcomeOf(err))
		return nil, err
	}

	updated, err := s.store.Update(ctx, id, Patch{
		Title:           req.Title,
		Description:     req.Description,
		Time:            req.Time,
		UpdatedAt:       s.now().UnixMilli(),
		ExpectedVersion: req.Version,
	})
	metrics.RecordMutation("update", outcomeOf(err))
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("id", id).Int("version", updated.Version).Msg("Activity updated")
	s.publish(ctx, events.TypeActivityUpdated, updated.ID, updated.Day)
	return updated, nil
}

func (s *service) DeleteActivity(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	metrics.RecordMutation("delete", outcomeOf(err))
	if err != nil {
		return err
	}

	s.logger.Debug().Str("id", id).Msg("Activity deleted")
	s.publish(ctx, events.TypeActivityDeleted, id, "")
	return nil
}

func (s *service) GetActivities(ctx context.Context) ([]Activity, error) {
	return s.store.GetAll(ctx)
}

func (s *service) GetActivityByID(ctx context.Context, id string) (*Activity, error) {
	return s.store.Get(ctx, id)
}

// GetBoard fetches the full collection and derives the five weekday columns from it.
func (s *service) GetBoard(ctx context.Context) ([]Column, error) {
	activities, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Columns(activities), nil
}

// publish reports a committed change. Failures are logged and never undo the mutation.
func (s *service) publish(ctx context.Context, eventType, id string, day Day) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		ActivityID: id,
		Day:        string(day),
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("type", eventType).Str("id", id).Msg("Failed to publish activity event")
	}
}

func outcomeOf(err error) string {
	var vErr *ValidationError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &vErr):
		return metrics.OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrVersionConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeStoreError
	}
}
