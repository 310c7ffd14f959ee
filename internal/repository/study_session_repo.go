package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

const sessionColumns = `id, user_id, subject_id, start_time, end_time, duration_minutes, notes`

func scanSession(row interface{ Scan(...any) error }) (*models.StudySession, error) {
	s := &models.StudySession{}
	err := row.Scan(&s.ID, &s.UserID, &s.SubjectID, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Notes)
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (q *Queries) listSessions(ctx context.Context, query string, args ...any) ([]models.StudySession, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []models.StudySession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (q *Queries) StartSession(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()
	_, err := q.db.Exec(ctx, `
		INSERT INTO study_sessions (id, user_id, subject_id, start_time, notes)
		VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.UserID, s.SubjectID, s.StartTime, s.Notes,
	)
	return mapErr(err)
}

// GetOpenSession returns the user's running session, locked for update.
func (q *Queries) GetOpenSession(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	return scanSession(q.db.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = $1 AND end_time IS NULL
		FOR UPDATE`, userID))
}

func (q *Queries) GetOpenSessionForSubject(ctx context.Context, userID, subjectID uuid.UUID) (*models.StudySession, error) {
	return scanSession(q.db.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = $1 AND subject_id = $2 AND end_time IS NULL`, userID, subjectID))
}

func (q *Queries) CloseSession(ctx context.Context, s *models.StudySession) error {
	return requireRow(q.db.Exec(ctx, `
		UPDATE study_sessions SET end_time = $1, duration_minutes = $2
		WHERE id = $3 AND end_time IS NULL`,
		s.EndTime, s.DurationMinutes, s.ID,
	))
}

func (q *Queries) ListRecentSessions(ctx context.Context, userID uuid.UUID, limit int) ([]models.StudySession, error) {
	return q.listSessions(ctx, `
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2`, userID, limit)
}

func (q *Queries) ListSessionsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]models.StudySession, error) {
	return q.listSessions(ctx, `
		SELECT `+sessionColumns+` FROM study_sessions
		WHERE user_id = $1 AND start_time >= $2
		ORDER BY start_time`, userID, since)
}

func (q *Queries) TotalStudyMinutes(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := q.db.QueryRow(ctx, `SELECT COALESCE(SUM(duration_minutes), 0) FROM study_sessions WHERE user_id = $1`, userID).Scan(&total)
	return total, err
}
