package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
)

// TxQueries is the set of statements an event body may issue inside its
// transaction. *repository.Queries satisfies it.
type TxQueries interface {
	progress.UnitOfWork

	GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error)

	CreateSubject(ctx context.Context, s *models.Subject) error
	GetSubject(ctx context.Context, id uuid.UUID) (*models.Subject, error)
	CreateChapter(ctx context.Context, c *models.Chapter) error
	ChapterOwnership(ctx context.Context, chapterID uuid.UUID) (repository.Ownership, error)
	TouchChapter(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateTopic(ctx context.Context, t *models.Topic) error
	GetTopic(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	GetTopicForUpdate(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	UpdateTopicProgress(ctx context.Context, t *models.Topic) error
	UpdateTopicNotes(ctx context.Context, id uuid.UUID, notes string) error
	TopicOwnership(ctx context.Context, topicID uuid.UUID) (repository.Ownership, error)
	CreateQuestion(ctx context.Context, qu *models.Question) error

	CreateFlashcard(ctx context.Context, f *models.Flashcard) error
	GetFlashcardForUpdate(ctx context.Context, id uuid.UUID) (*models.Flashcard, error)
	FlashcardOwnership(ctx context.Context, cardID uuid.UUID) (repository.Ownership, error)

	StartSession(ctx context.Context, s *models.StudySession) error
	GetOpenSession(ctx context.Context, userID uuid.UUID) (*models.StudySession, error)
	GetOpenSessionForSubject(ctx context.Context, userID, subjectID uuid.UUID) (*models.StudySession, error)
	CloseSession(ctx context.Context, s *models.StudySession) error

	CreateReminder(ctx context.Context, r *models.Reminder) error
	GetReminderForUpdate(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	CompleteReminder(ctx context.Context, id uuid.UUID) error
	CreateStudyEvent(ctx context.Context, e *models.StudyEvent) error
}

var _ TxQueries = (*repository.Queries)(nil)

// txRunner opens one transaction per call and commits it when fn returns nil.
type txRunner interface {
	InTx(ctx context.Context, fn func(q TxQueries) error) error
}

type storeRunner struct {
	store *repository.Store
}

func (r storeRunner) InTx(ctx context.Context, fn func(q TxQueries) error) error {
	return r.store.InTx(ctx, func(q *repository.Queries) error { return fn(q) })
}

// Mutator runs one triggering event for one user: it takes the user's lock,
// opens a transaction, loads the user row for update, runs the event and,
// after commit, announces any badges or level-up it produced.
type Mutator struct {
	tx        txRunner
	engine    *progress.Engine
	locker    UserLocker
	publisher Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewMutator(store *repository.Store, engine *progress.Engine, locker UserLocker, publisher Publisher, log *logger.Logger) *Mutator {
	if locker == nil {
		locker = noopLocker{}
	}
	return &Mutator{
		tx:        storeRunner{store: store},
		engine:    engine,
		locker:    locker,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Scope is what an event body sees inside the transaction.
type Scope struct {
	Q    TxQueries
	User *models.User
	Now  time.Time

	engine    *progress.Engine
	uow       *recordingUnitOfWork
	leveledUp bool
}

func (s *Scope) AddPoints(ctx context.Context, delta int) (bool, error) {
	leveled, err := s.engine.AddPoints(ctx, s.uow, s.User, delta)
	if leveled {
		s.leveledUp = true
	}
	return leveled, err
}

func (s *Scope) RecordStudyActivity(ctx context.Context) (int, error) {
	return s.engine.RecordStudyActivity(ctx, s.uow, s.User, s.Now)
}

func (s *Scope) CheckAchievements(ctx context.Context) ([]string, error) {
	return s.engine.CheckAchievements(ctx, s.uow, s.User)
}

func (s *Scope) ReviewFlashcard(ctx context.Context, card *models.Flashcard, correct bool) (int, error) {
	return s.engine.ReviewFlashcard(ctx, s.uow, card, correct, s.Now)
}

func (s *Scope) outbox() outbox {
	out := outbox{badges: s.uow.badges}
	if s.leveledUp {
		out.levelUp = &models.LevelUpEvent{Level: s.User.Level, Points: s.User.Points}
	}
	return out
}

// Run executes fn atomically for userID. Nothing fn wrote survives if it
// returns an error.
func (m *Mutator) Run(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context, s *Scope) error) error {
	unlock, err := m.locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	var out outbox
	err = m.tx.InTx(ctx, func(q TxQueries) error {
		user, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			return notFound(err, "User")
		}
		scope := &Scope{
			Q:      q,
			User:   user,
			Now:    m.now(),
			engine: m.engine,
			uow:    &recordingUnitOfWork{UnitOfWork: q},
		}
		if err := fn(ctx, scope); err != nil {
			return err
		}
		out = scope.outbox()
		return nil
	})
	if err != nil {
		return err
	}

	m.announce(ctx, userID, out)
	return nil
}

func (m *Mutator) announce(ctx context.Context, userID uuid.UUID, out outbox) {
	if m.publisher == nil {
		return
	}
	for _, msg := range out.messages() {
		if err := m.publisher.Publish(ctx, userID, msg); err != nil {
			m.log.Warn("failed to publish live update", "user_id", userID.String(), "type", msg.Type, "error", err)
		}
	}
}
