package models

import (
	"time"

	"github.com/google/uuid"
)

type Flashcard struct {
	ID           uuid.UUID  `json:"id"`
	TopicID      uuid.UUID  `json:"topic_id"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	NextReview   *time.Time `json:"next_review"`
	ReviewCount  int        `json:"review_count"`
	MasteryLevel int        `json:"mastery_level"`
	CreatedAt    time.Time  `json:"created_at"`
}

type CreateFlashcardRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ReviewFlashcardRequest uses a pointer so a missing field is distinguishable from false.
type ReviewFlashcardRequest struct {
	Correct *bool `json:"correct"`
}

type ReviewResult struct {
	Flashcard    *Flashcard `json:"flashcard"`
	MasteryLevel int        `json:"mastery_level"`
	PointsEarned int        `json:"points_earned"`
	LeveledUp    bool       `json:"leveled_up"`
	Achievements []string   `json:"achievements"`
}
