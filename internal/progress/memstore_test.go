package progress

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
)

// memStore is an in-memory UnitOfWork and StatsSource for engine tests.
type memStore struct {
	users        map[uuid.UUID]models.User
	badges       []models.Badge
	achievements []models.Achievement
	flashcards   map[uuid.UUID]models.Flashcard
	trees        []models.SubjectTree

	completedTopics int
	studyMinutes    int

	userWrites int
	failUpdate error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[uuid.UUID]models.User{},
		flashcards: map[uuid.UUID]models.Flashcard{},
	}
}

func (m *memStore) UpdateUserProgress(_ context.Context, u *models.User) error {
	if m.failUpdate != nil {
		return m.failUpdate
	}
	m.userWrites++
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) HasBadge(_ context.Context, userID uuid.UUID, name string) (bool, error) {
	for _, b := range m.badges {
		if b.UserID == userID && b.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertBadge(ctx context.Context, b *models.Badge) (bool, error) {
	held, _ := m.HasBadge(ctx, b.UserID, b.Name)
	if held {
		return false, nil
	}
	m.badges = append(m.badges, *b)
	return true, nil
}

func (m *memStore) InsertAchievement(_ context.Context, a *models.Achievement) error {
	m.achievements = append(m.achievements, *a)
	return nil
}

func (m *memStore) CountCompletedTopics(context.Context, uuid.UUID) (int, error) {
	return m.completedTopics, nil
}

func (m *memStore) CountMasteredFlashcards(_ context.Context, _ uuid.UUID, minLevel int) (int, error) {
	n := 0
	for _, c := range m.flashcards {
		if c.MasteryLevel >= minLevel {
			n++
		}
	}
	return n, nil
}

func (m *memStore) TotalStudyMinutes(context.Context, uuid.UUID) (int, error) {
	return m.studyMinutes, nil
}

func (m *memStore) UpdateFlashcardReview(_ context.Context, card *models.Flashcard) error {
	if _, ok := m.flashcards[card.ID]; !ok {
		return errors.New("flashcard not found")
	}
	m.flashcards[card.ID] = *card
	return nil
}

func (m *memStore) ListSubjectTrees(context.Context, uuid.UUID) ([]models.SubjectTree, error) {
	return m.trees, nil
}

func (m *memStore) ListDueFlashcards(context.Context, uuid.UUID, time.Time) ([]models.Flashcard, error) {
	out := make([]models.Flashcard, 0, len(m.flashcards))
	for _, c := range m.flashcards {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) badgeCount(name string) int {
	n := 0
	for _, b := range m.badges {
		if b.Name == name {
			n++
		}
	}
	return n
}

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(logger.Nop(), WithClock(func() time.Time { return testNow }))
}

func newTestUser() *models.User {
	return &models.User{ID: uuid.New(), Username: "ana", Level: 1}
}
