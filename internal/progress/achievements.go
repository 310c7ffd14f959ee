package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

// Achievement log types.
const (
	AchievementLevel              = "level"
	AchievementStreak             = "streak"
	AchievementTopicsCompleted    = "topics_completed"
	AchievementFlashcardsMastered = "flashcards_mastered"
	AchievementStudyHours         = "study_hours"
)

// MasteredLevel is the mastery level at which a flashcard counts as mastered.
const MasteredLevel = MaxMastery

// Counters are the aggregates milestone thresholds are evaluated against.
type Counters struct {
	CompletedTopics    int
	MasteredFlashcards int
	StudyMinutes       int
}

func (c Counters) StudyHours() float64 {
	return float64(c.StudyMinutes) / 60
}

type milestone struct {
	badge       string
	description string
	label       string
	kind        string
	reached     func(Counters) bool
	value       func(Counters) int
}

var milestones = []milestone{
	{
		badge:       BadgeFirstTopic,
		description: "Completed your first topic!",
		label:       "First Topic Completed",
		kind:        AchievementTopicsCompleted,
		reached:     func(c Counters) bool { return c.CompletedTopics == 1 },
		value:       func(c Counters) int { return c.CompletedTopics },
	},
	{
		badge:       BadgeTopicsMaster,
		description: "Completed 100 topics!",
		label:       "Topics Master",
		kind:        AchievementTopicsCompleted,
		reached:     func(c Counters) bool { return c.CompletedTopics >= 100 },
		value:       func(c Counters) int { return c.CompletedTopics },
	},
	{
		badge:       BadgeFlashcardMaster,
		description: "Mastered 50 flashcards!",
		label:       "Flashcard Master",
		kind:        AchievementFlashcardsMastered,
		reached:     func(c Counters) bool { return c.MasteredFlashcards >= 50 },
		value:       func(c Counters) int { return c.MasteredFlashcards },
	},
	{
		badge:       BadgeStudyWarrior,
		description: "Studied for 100 hours!",
		label:       "Study Warrior",
		kind:        AchievementStudyHours,
		reached:     func(c Counters) bool { return c.StudyHours() >= 100 },
		value:       func(c Counters) int { return int(c.StudyHours()) },
	},
}

// LoadCounters recomputes the milestone counters for a user from the store.
func LoadCounters(ctx context.Context, uow UnitOfWork, userID uuid.UUID) (Counters, error) {
	var c Counters
	var err error

	if c.CompletedTopics, err = uow.CountCompletedTopics(ctx, userID); err != nil {
		return c, fmt.Errorf("failed to count completed topics: %w", err)
	}
	if c.MasteredFlashcards, err = uow.CountMasteredFlashcards(ctx, userID, MasteredLevel); err != nil {
		return c, fmt.Errorf("failed to count mastered flashcards: %w", err)
	}
	if c.StudyMinutes, err = uow.TotalStudyMinutes(ctx, userID); err != nil {
		return c, fmt.Errorf("failed to sum study minutes: %w", err)
	}
	return c, nil
}

// CheckAchievements evaluates every milestone against freshly loaded counters
// and returns the labels of badges granted by this call. Badges already held
// are skipped, so repeated calls are safe.
func (e *Engine) CheckAchievements(ctx context.Context, uow UnitOfWork, user *models.User) ([]string, error) {
	counters, err := LoadCounters(ctx, uow, user.ID)
	if err != nil {
		return nil, err
	}

	labels := []string{}
	for _, m := range milestones {
		if !m.reached(counters) {
			continue
		}
		granted, err := e.GrantBadge(ctx, uow, user, m.badge, m.description)
		if err != nil {
			return labels, err
		}
		if !granted {
			continue
		}
		if err := e.logAchievement(ctx, uow, user.ID, m.kind, m.value(counters), m.description); err != nil {
			return labels, fmt.Errorf("failed to log achievement %s: %w", m.badge, err)
		}
		labels = append(labels, m.label)
	}

	return labels, nil
}
