package repository

import (
	"context"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

func (q *Queries) HasBadge(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	var held bool
	err := q.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM badges WHERE user_id = $1 AND name = $2)`, userID, name,
	).Scan(&held)
	return held, err
}

// InsertBadge relies on UNIQUE(user_id, name); a concurrent duplicate is
// reported as not inserted rather than as an error.
func (q *Queries) InsertBadge(ctx context.Context, b *models.Badge) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO badges (id, user_id, name, description, icon, earned_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, name) DO NOTHING`,
		b.ID, b.UserID, b.Name, b.Description, b.Icon, b.EarnedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q *Queries) ListBadges(ctx context.Context, userID uuid.UUID) ([]models.Badge, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, name, description, icon, earned_at
		FROM badges WHERE user_id = $1
		ORDER BY earned_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	badges := []models.Badge{}
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Description, &b.Icon, &b.EarnedAt); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (q *Queries) InsertAchievement(ctx context.Context, a *models.Achievement) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO achievements (id, user_id, type, value, description, achieved_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.Type, a.Value, a.Description, a.AchievedAt,
	)
	return err
}

func (q *Queries) ListAchievements(ctx context.Context, userID uuid.UUID, limit int) ([]models.Achievement, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, type, value, description, achieved_at
		FROM achievements WHERE user_id = $1
		ORDER BY achieved_at DESC, id
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Value, &a.Description, &a.AchievedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) CountCompletedTopics(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM topics t
		JOIN chapters c ON c.id = t.chapter_id
		JOIN subjects s ON s.id = c.subject_id
		WHERE s.user_id = $1 AND t.status = $2`, userID, models.TopicCompleted).Scan(&n)
	return n, err
}
