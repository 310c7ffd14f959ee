package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

const userColumns = `id, username, password_hash, points, level, streak, last_study_date, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Points, &u.Level, &u.Streak, &u.LastStudyDate, &u.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}

func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, points, level, streak)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	err := q.db.QueryRow(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.Points, user.Level, user.Streak,
	).Scan(&user.CreatedAt)
	return mapErr(err)
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserForUpdate loads the user and row-locks it for the rest of the
// transaction.
func (q *Queries) GetUserForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (q *Queries) UpdateUserProgress(ctx context.Context, u *models.User) error {
	return requireRow(q.db.Exec(ctx,
		`UPDATE users SET points = $1, level = $2, streak = $3, last_study_date = $4 WHERE id = $5`,
		u.Points, u.Level, u.Streak, u.LastStudyDate, u.ID,
	))
}

func (q *Queries) ListLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT username, points, level, streak
		FROM users
		ORDER BY points DESC, created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Points, &e.Level, &e.Streak); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// userDeleteSteps removes a user's data leaves first. Foreign keys carry no
// ON DELETE CASCADE, so the order matters.
var userDeleteSteps = []struct {
	table string
	query string
}{
	{"flashcards", `DELETE FROM flashcards WHERE topic_id IN (
		SELECT t.id FROM topics t
		JOIN chapters c ON c.id = t.chapter_id
		JOIN subjects s ON s.id = c.subject_id
		WHERE s.user_id = $1)`},
	{"reminders", `DELETE FROM reminders WHERE user_id = $1`},
	{"study_events", `DELETE FROM study_events WHERE user_id = $1`},
	{"topics", `DELETE FROM topics WHERE chapter_id IN (
		SELECT c.id FROM chapters c
		JOIN subjects s ON s.id = c.subject_id
		WHERE s.user_id = $1)`},
	{"questions", `DELETE FROM questions WHERE chapter_id IN (
		SELECT c.id FROM chapters c
		JOIN subjects s ON s.id = c.subject_id
		WHERE s.user_id = $1)`},
	{"chapters", `DELETE FROM chapters WHERE subject_id IN (SELECT id FROM subjects WHERE user_id = $1)`},
	{"study_sessions", `DELETE FROM study_sessions WHERE user_id = $1`},
	{"subjects", `DELETE FROM subjects WHERE user_id = $1`},
	{"badges", `DELETE FROM badges WHERE user_id = $1`},
	{"achievements", `DELETE FROM achievements WHERE user_id = $1`},
}

// DeleteUserCascade removes the user and everything they own. Run it inside
// InTx so a failure part way leaves nothing half deleted.
func (q *Queries) DeleteUserCascade(ctx context.Context, userID uuid.UUID) error {
	for _, step := range userDeleteSteps {
		if _, err := q.db.Exec(ctx, step.query, userID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", step.table, err)
		}
	}
	return requireRow(q.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID))
}
