package models

import (
	"time"

	"github.com/google/uuid"
)

// Badge is unique per (user, name); name is the badge type.
type Badge struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earned_at"`
}

// Achievement is an append-only log of milestone crossings.
type Achievement struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Type        string    `json:"type"`
	Value       int       `json:"value"`
	Description string    `json:"description"`
	AchievedAt  time.Time `json:"achieved_at"`
}

type AchievementsOverview struct {
	Points             int     `json:"points"`
	Level              int     `json:"level"`
	Streak             int     `json:"streak"`
	Badges             []Badge `json:"badges"`
	CompletedTopics    int     `json:"completed_topics"`
	MasteredFlashcards int     `json:"mastered_flashcards"`
	TotalStudyHours    float64 `json:"total_study_hours"`
}

type TopicUpdateResult struct {
	Topic        *Topic   `json:"topic"`
	PointsEarned int      `json:"points_earned"`
	LeveledUp    bool     `json:"leveled_up"`
	Streak       int      `json:"streak,omitempty"`
	Achievements []string `json:"achievements"`
}
