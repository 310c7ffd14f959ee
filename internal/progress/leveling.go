package progress

import (
	"context"
	"fmt"

	"studyplanner-backend/internal/models"
)

const pointsPerLevel = 100

// LevelForPoints maps accumulated points to a level, starting at 1.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

// AddPoints credits delta points to the user and persists points and level.
// Negative deltas are ignored. On level-up the level_up badge is granted and
// the new level is logged as an achievement. Reports whether the level rose.
func (e *Engine) AddPoints(ctx context.Context, uow UnitOfWork, user *models.User, delta int) (bool, error) {
	if delta <= 0 {
		return false, nil
	}

	oldLevel := user.Level
	user.Points += delta
	user.Level = LevelForPoints(user.Points)

	if err := uow.UpdateUserProgress(ctx, user); err != nil {
		return false, fmt.Errorf("failed to persist points: %w", err)
	}

	if user.Level <= oldLevel {
		return false, nil
	}

	description := fmt.Sprintf("Reached Level %d!", user.Level)
	if _, err := e.GrantBadge(ctx, uow, user, BadgeLevelUp, description); err != nil {
		return true, err
	}
	if err := e.logAchievement(ctx, uow, user.ID, AchievementLevel, user.Level, description); err != nil {
		return true, fmt.Errorf("failed to log level achievement: %w", err)
	}

	e.log.Info("user leveled up", "user_id", user.ID, "level", user.Level, "points", user.Points)
	return true, nil
}
