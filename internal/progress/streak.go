package progress

import (
	"context"
	"fmt"
	"time"

	"studyplanner-backend/internal/models"
)

const (
	weekStreakDays  = 7
	monthStreakDays = 30
)

// RecordStudyActivity advances the user's consecutive-day streak for a
// qualifying activity at now. Days are UTC calendar days. A second call on the
// same day leaves the streak unchanged; a gap of more than one day resets it
// to 1. last_study_date is always moved to now.
func (e *Engine) RecordStudyActivity(ctx context.Context, uow UnitOfWork, user *models.User, now time.Time) (int, error) {
	milestone := false

	if user.LastStudyDate == nil {
		user.Streak = 1
	} else {
		switch gap := calendarDaysBetween(*user.LastStudyDate, now); {
		case gap == 1:
			user.Streak++
			milestone = user.Streak == weekStreakDays || user.Streak == monthStreakDays
		case gap > 1:
			user.Streak = 1
		}
		// gap <= 0: already counted today (or clock skew), streak unchanged
	}

	studied := now.UTC()
	user.LastStudyDate = &studied

	if err := uow.UpdateUserProgress(ctx, user); err != nil {
		return user.Streak, fmt.Errorf("failed to persist streak: %w", err)
	}

	if milestone {
		badge, description := BadgeWeekStreak, "7-day study streak!"
		if user.Streak == monthStreakDays {
			badge, description = BadgeMonthStreak, "30-day study streak!"
		}
		granted, err := e.GrantBadge(ctx, uow, user, badge, description)
		if err != nil {
			return user.Streak, err
		}
		if granted {
			if err := e.logAchievement(ctx, uow, user.ID, AchievementStreak, user.Streak, description); err != nil {
				return user.Streak, fmt.Errorf("failed to log streak achievement: %w", err)
			}
		}
	}

	return user.Streak, nil
}

// calendarDaysBetween returns the number of UTC calendar days from a to b.
func calendarDaysBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
