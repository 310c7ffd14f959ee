package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

const (
	MinMastery = 0
	MaxMastery = 5

	fallbackIntervalDays = 90
)

// reviewIntervals holds the days until the next review, indexed by mastery level.
var reviewIntervals = [...]int{1, 3, 7, 14, 30, 60}

// IntervalDays returns the review gap for a mastery level. Levels past the
// table get the 90-day fallback.
func IntervalDays(masteryLevel int) int {
	if masteryLevel < 0 {
		masteryLevel = 0
	}
	if masteryLevel < len(reviewIntervals) {
		return reviewIntervals[masteryLevel]
	}
	return fallbackIntervalDays
}

// ClampMastery bounds a mastery level to [MinMastery, MaxMastery].
func ClampMastery(level int) int {
	switch {
	case level < MinMastery:
		return MinMastery
	case level > MaxMastery:
		return MaxMastery
	default:
		return level
	}
}

// ApplyReview moves the card one mastery step up or down, bumps its review
// count and schedules the next review from now.
func ApplyReview(card *models.Flashcard, correct bool, now time.Time) int {
	card.ReviewCount++

	level := ClampMastery(card.MasteryLevel)
	if correct {
		level++
	} else {
		level--
	}
	card.MasteryLevel = ClampMastery(level)

	next := now.UTC().Add(time.Duration(IntervalDays(card.MasteryLevel)) * 24 * time.Hour)
	card.NextReview = &next

	return card.MasteryLevel
}

// ReviewFlashcard applies a review outcome and persists the card.
func (e *Engine) ReviewFlashcard(ctx context.Context, uow UnitOfWork, card *models.Flashcard, correct bool, now time.Time) (int, error) {
	level := ApplyReview(card, correct, now)
	if err := uow.UpdateFlashcardReview(ctx, card); err != nil {
		return level, fmt.Errorf("failed to persist flashcard review: %w", err)
	}
	return level, nil
}

// IsDue reports whether a card has been scheduled and its review time has come.
// Cards that were never reviewed are not due.
func IsDue(card models.Flashcard, now time.Time) bool {
	return card.NextReview != nil && !card.NextReview.After(now)
}

// DueFlashcards lists every card owned by the user whose review is due at now.
func (e *Engine) DueFlashcards(ctx context.Context, src StatsSource, userID uuid.UUID, now time.Time) ([]models.Flashcard, error) {
	cards, err := src.ListDueFlashcards(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due flashcards: %w", err)
	}

	due := make([]models.Flashcard, 0, len(cards))
	for _, card := range cards {
		if IsDue(card, now) {
			due = append(due, card)
		}
	}
	return due, nil
}
