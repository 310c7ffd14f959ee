package progress

import (
	"time"

	"studyplanner-backend/internal/models"
)

// Points awarded per triggering event.
const (
	PointsSessionStart      = 10
	PointsTopicCompleted    = 25
	PointsFlashcardCreated  = 3
	PointsReviewCorrect     = 2
	PointsReviewIncorrect   = 1
	PointsSubjectAdded      = 10
	PointsChapterAdded      = 5
	PointsTopicAdded        = 5
	PointsQuestionAdded     = 2
	PointsReminderAdded     = 5
	PointsReminderCompleted = 10
	PointsEventAdded        = 5
	PointsImport            = 50

	maxSessionPoints = 50
)

// SessionPoints awards 10 points per full 10 minutes studied, capped at 50.
func SessionPoints(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return min(minutes/10*10, maxSessionPoints)
}

// ReviewPoints returns the points for answering a flashcard.
func ReviewPoints(correct bool) int {
	if correct {
		return PointsReviewCorrect
	}
	return PointsReviewIncorrect
}

// SessionDuration returns whole minutes between start and end, never negative.
func SessionDuration(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// ClampProgress bounds a topic progress percentage to [0, 100].
func ClampProgress(p int) int {
	return max(0, min(p, 100))
}

func ValidTopicStatus(status string) bool {
	switch status {
	case models.TopicNotStarted, models.TopicInProgress, models.TopicCompleted:
		return true
	}
	return false
}
