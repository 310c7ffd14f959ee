package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

// Badge types. A user holds at most one badge of each type.
const (
	BadgeWelcome         = "welcome"
	BadgeLevelUp         = "level_up"
	BadgeWeekStreak      = "week_streak"
	BadgeMonthStreak     = "month_streak"
	BadgeFirstTopic      = "first_topic"
	BadgeTopicsMaster    = "topics_master"
	BadgeFlashcardMaster = "flashcard_master"
	BadgeStudyWarrior    = "study_warrior"
)

const defaultBadgeIcon = "🏅"

var badgeIcons = map[string]string{
	BadgeLevelUp:         "🎖️",
	BadgeWeekStreak:      "🔥",
	BadgeMonthStreak:     "💎",
	BadgeFirstTopic:      "⭐",
	BadgeTopicsMaster:    "🏆",
	BadgeFlashcardMaster: "🧠",
	BadgeStudyWarrior:    "⚔️",
}

// BadgeIcon resolves the icon for a badge type, falling back to a medal.
func BadgeIcon(badgeType string) string {
	if icon, ok := badgeIcons[badgeType]; ok {
		return icon
	}
	return defaultBadgeIcon
}

// GrantBadge awards badgeType to the user unless it is already held. It is the
// only path that creates Badge rows. Reports whether a badge was created.
func (e *Engine) GrantBadge(ctx context.Context, uow UnitOfWork, user *models.User, badgeType, description string) (bool, error) {
	held, err := uow.HasBadge(ctx, user.ID, badgeType)
	if err != nil {
		return false, fmt.Errorf("failed to look up badge %s: %w", badgeType, err)
	}
	if held {
		return false, nil
	}

	badge := &models.Badge{
		ID:          uuid.New(),
		UserID:      user.ID,
		Name:        badgeType,
		Description: description,
		Icon:        BadgeIcon(badgeType),
		EarnedAt:    e.now(),
	}
	inserted, err := uow.InsertBadge(ctx, badge)
	if err != nil {
		return false, fmt.Errorf("failed to insert badge %s: %w", badgeType, err)
	}
	if inserted {
		e.log.Info("badge granted", "user_id", user.ID, "badge", badgeType)
	}
	return inserted, nil
}
