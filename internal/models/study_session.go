package models

import (
	"time"

	"github.com/google/uuid"
)

type StudySession struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	SubjectID       uuid.UUID  `json:"subject_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Notes           string     `json:"notes"`
}

// Running reports whether the session has not been closed yet.
func (s *StudySession) Running() bool {
	return s.EndTime == nil
}

type SessionResult struct {
	Session      *StudySession `json:"session"`
	PointsEarned int           `json:"points_earned"`
	LeveledUp    bool          `json:"leveled_up"`
	Streak       int           `json:"streak,omitempty"`
	Achievements []string      `json:"achievements"`
}
