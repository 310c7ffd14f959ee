package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

const reminderColumns = `id, user_id, subject_id, topic_id, title, description, reminder_time, is_completed, repeat`

func scanReminder(row interface{ Scan(...any) error }) (*models.Reminder, error) {
	r := &models.Reminder{}
	err := row.Scan(&r.ID, &r.UserID, &r.SubjectID, &r.TopicID, &r.Title, &r.Description, &r.ReminderTime, &r.IsCompleted, &r.Repeat)
	if err != nil {
		return nil, mapErr(err)
	}
	return r, nil
}

func (q *Queries) listReminders(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *r)
	}
	return reminders, rows.Err()
}

func (q *Queries) CreateReminder(ctx context.Context, r *models.Reminder) error {
	r.ID = uuid.New()
	_, err := q.db.Exec(ctx, `
		INSERT INTO reminders (id, user_id, subject_id, topic_id, title, description, reminder_time, is_completed, repeat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.UserID, r.SubjectID, r.TopicID, r.Title, r.Description, r.ReminderTime, r.IsCompleted, r.Repeat,
	)
	return mapErr(err)
}

func (q *Queries) GetReminderForUpdate(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	return scanReminder(q.db.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) GetReminder(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	return scanReminder(q.db.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id))
}

func (q *Queries) ListReminders(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error) {
	return q.listReminders(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE user_id = $1 ORDER BY reminder_time, id`, userID)
}

func (q *Queries) ListUpcomingReminders(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]models.Reminder, error) {
	return q.listReminders(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE user_id = $1 AND is_completed = FALSE AND reminder_time >= $2
		ORDER BY reminder_time, id
		LIMIT $3`, userID, now, limit)
}

func (q *Queries) CompleteReminder(ctx context.Context, id uuid.UUID) error {
	return requireRow(q.db.Exec(ctx, `UPDATE reminders SET is_completed = TRUE WHERE id = $1`, id))
}

func (q *Queries) DeleteReminder(ctx context.Context, id uuid.UUID) error {
	return requireRow(q.db.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id))
}

// ClaimDueReminders marks up to limit due, unannounced reminders as notified
// and returns them. Rows locked by a concurrent claim are skipped.
func (q *Queries) ClaimDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error) {
	return q.listReminders(ctx, `
		UPDATE reminders SET notified_at = $1
		WHERE id IN (
			SELECT id FROM reminders
			WHERE is_completed = FALSE AND notified_at IS NULL AND reminder_time <= $1
			ORDER BY reminder_time
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+reminderColumns, now, limit)
}

const eventColumns = `id, user_id, subject_id, title, description, event_date, start_time, end_time, event_type`

func scanEvent(row interface{ Scan(...any) error }) (*models.StudyEvent, error) {
	e := &models.StudyEvent{}
	err := row.Scan(&e.ID, &e.UserID, &e.SubjectID, &e.Title, &e.Description, &e.EventDate, &e.StartTime, &e.EndTime, &e.EventType)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

func (q *Queries) CreateStudyEvent(ctx context.Context, e *models.StudyEvent) error {
	e.ID = uuid.New()
	_, err := q.db.Exec(ctx, `
		INSERT INTO study_events (id, user_id, subject_id, title, description, event_date, start_time, end_time, event_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.UserID, e.SubjectID, e.Title, e.Description, e.EventDate, e.StartTime, e.EndTime, e.EventType,
	)
	return mapErr(err)
}

func (q *Queries) GetStudyEvent(ctx context.Context, id uuid.UUID) (*models.StudyEvent, error) {
	return scanEvent(q.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM study_events WHERE id = $1`, id))
}

func (q *Queries) DeleteStudyEvent(ctx context.Context, id uuid.UUID) error {
	return requireRow(q.db.Exec(ctx, `DELETE FROM study_events WHERE id = $1`, id))
}

// ListStudyEvents returns events with from <= event_date < to.
func (q *Queries) ListStudyEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudyEvent, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+eventColumns+` FROM study_events
		WHERE user_id = $1 AND event_date >= $2 AND event_date < $3
		ORDER BY event_date, start_time NULLS FIRST, id`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.StudyEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
