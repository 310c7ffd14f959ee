// Package progress turns study events into derived learner state: points and
// levels, day streaks, badges, achievement log entries and flashcard review
// schedules. It also builds the read-only rollups shown on dashboards.
//
// Every mutating operation works against a UnitOfWork supplied by the caller.
// The caller owns the transaction: it begins it, runs one or more engine
// operations for a single triggering event, and commits or rolls back. The
// engine itself holds no per-user state and never checks ownership; callers
// verify the User→Subject→Chapter→Topic→Flashcard chain first.
package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
)

// UnitOfWork is the slice of the entity store the engine mutates through.
type UnitOfWork interface {
	UpdateUserProgress(ctx context.Context, u *models.User) error
	HasBadge(ctx context.Context, userID uuid.UUID, name string) (bool, error)
	// InsertBadge reports false when a badge of the same name already exists.
	InsertBadge(ctx context.Context, b *models.Badge) (bool, error)
	InsertAchievement(ctx context.Context, a *models.Achievement) error
	CountCompletedTopics(ctx context.Context, userID uuid.UUID) (int, error)
	CountMasteredFlashcards(ctx context.Context, userID uuid.UUID, minLevel int) (int, error)
	TotalStudyMinutes(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateFlashcardReview(ctx context.Context, card *models.Flashcard) error
}

// StatsSource is the read-only view used by the aggregator and due-card queries.
type StatsSource interface {
	ListSubjectTrees(ctx context.Context, userID uuid.UUID) ([]models.SubjectTree, error)
	ListDueFlashcards(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Flashcard, error)
}

type Engine struct {
	log *logger.Logger
	now func() time.Time
}

type Option func(*Engine)

// WithClock replaces the wall clock used for badge and achievement timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		log: log.With("component", "progress"),
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) logAchievement(ctx context.Context, uow UnitOfWork, userID uuid.UUID, kind string, value int, description string) error {
	return uow.InsertAchievement(ctx, &models.Achievement{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        kind,
		Value:       value,
		Description: description,
		AchievedAt:  e.now(),
	})
}
