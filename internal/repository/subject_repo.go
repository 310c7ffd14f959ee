package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

// Ownership is the resolved User→Subject→Chapter→Topic chain above an entity.
// Fields below the entity's own level are left zero.
type Ownership struct {
	UserID    uuid.UUID
	SubjectID uuid.UUID
	ChapterID uuid.UUID
	TopicID   uuid.UUID
}

const subjectColumns = `id, user_id, name, color, share_token, created_at`

func scanSubject(row interface{ Scan(...any) error }) (*models.Subject, error) {
	s := &models.Subject{}
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Color, &s.ShareToken, &s.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (q *Queries) CreateSubject(ctx context.Context, s *models.Subject) error {
	s.ID = uuid.New()
	return mapErr(q.db.QueryRow(ctx, `
		INSERT INTO subjects (id, user_id, name, color)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		s.ID, s.UserID, s.Name, s.Color,
	).Scan(&s.CreatedAt))
}

func (q *Queries) GetSubject(ctx context.Context, id uuid.UUID) (*models.Subject, error) {
	return scanSubject(q.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id))
}

func (q *Queries) GetSubjectByShareToken(ctx context.Context, token string) (*models.Subject, error) {
	return scanSubject(q.db.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE share_token = $1`, token))
}

func (q *Queries) ListSubjects(ctx context.Context, userID uuid.UUID) ([]models.Subject, error) {
	rows, err := q.db.Query(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []models.Subject{}
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, *s)
	}
	return subjects, rows.Err()
}

// EnsureShareToken stores token unless the subject already has one and
// returns whichever token is in effect.
func (q *Queries) EnsureShareToken(ctx context.Context, subjectID uuid.UUID, token string) (string, error) {
	var current string
	err := q.db.QueryRow(ctx, `
		UPDATE subjects SET share_token = COALESCE(share_token, $2)
		WHERE id = $1
		RETURNING share_token`, subjectID, token).Scan(&current)
	return current, mapErr(err)
}

const chapterColumns = `id, subject_id, name, last_studied, created_at`

func scanChapter(row interface{ Scan(...any) error }) (*models.Chapter, error) {
	c := &models.Chapter{}
	if err := row.Scan(&c.ID, &c.SubjectID, &c.Name, &c.LastStudied, &c.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (q *Queries) CreateChapter(ctx context.Context, c *models.Chapter) error {
	c.ID = uuid.New()
	return mapErr(q.db.QueryRow(ctx, `
		INSERT INTO chapters (id, subject_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		c.ID, c.SubjectID, c.Name,
	).Scan(&c.CreatedAt))
}

func (q *Queries) GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	return scanChapter(q.db.QueryRow(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id = $1`, id))
}

func (q *Queries) TouchChapter(ctx context.Context, id uuid.UUID, at time.Time) error {
	return requireRow(q.db.Exec(ctx, `UPDATE chapters SET last_studied = $1 WHERE id = $2`, at, id))
}

func (q *Queries) ChapterOwnership(ctx context.Context, chapterID uuid.UUID) (Ownership, error) {
	o := Ownership{ChapterID: chapterID}
	err := q.db.QueryRow(ctx, `
		SELECT s.user_id, s.id
		FROM chapters c
		JOIN subjects s ON s.id = c.subject_id
		WHERE c.id = $1`, chapterID).Scan(&o.UserID, &o.SubjectID)
	return o, mapErr(err)
}

const topicColumns = `id, chapter_id, name, status, progress, notes, created_at`

func scanTopic(row interface{ Scan(...any) error }) (*models.Topic, error) {
	t := &models.Topic{}
	if err := row.Scan(&t.ID, &t.ChapterID, &t.Name, &t.Status, &t.Progress, &t.Notes, &t.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (q *Queries) CreateTopic(ctx context.Context, t *models.Topic) error {
	t.ID = uuid.New()
	if t.Status == "" {
		t.Status = models.TopicNotStarted
	}
	return mapErr(q.db.QueryRow(ctx, `
		INSERT INTO topics (id, chapter_id, name, status, progress, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		t.ID, t.ChapterID, t.Name, t.Status, t.Progress, t.Notes,
	).Scan(&t.CreatedAt))
}

func (q *Queries) GetTopicForUpdate(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	return scanTopic(q.db.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = $1 FOR UPDATE`, id))
}

func (q *Queries) GetTopic(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	return scanTopic(q.db.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = $1`, id))
}

func (q *Queries) UpdateTopicProgress(ctx context.Context, t *models.Topic) error {
	return requireRow(q.db.Exec(ctx,
		`UPDATE topics SET status = $1, progress = $2 WHERE id = $3`,
		t.Status, t.Progress, t.ID,
	))
}

func (q *Queries) UpdateTopicNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return requireRow(q.db.Exec(ctx, `UPDATE topics SET notes = $1 WHERE id = $2`, notes, id))
}

func (q *Queries) TopicOwnership(ctx context.Context, topicID uuid.UUID) (Ownership, error) {
	o := Ownership{TopicID: topicID}
	err := q.db.QueryRow(ctx, `
		SELECT s.user_id, s.id, c.id
		FROM topics t
		JOIN chapters c ON c.id = t.chapter_id
		JOIN subjects s ON s.id = c.subject_id
		WHERE t.id = $1`, topicID).Scan(&o.UserID, &o.SubjectID, &o.ChapterID)
	return o, mapErr(err)
}

func (q *Queries) CreateQuestion(ctx context.Context, qu *models.Question) error {
	qu.ID = uuid.New()
	return mapErr(q.db.QueryRow(ctx, `
		INSERT INTO questions (id, chapter_id, text, difficulty)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		qu.ID, qu.ChapterID, qu.Text, qu.Difficulty,
	).Scan(&qu.CreatedAt))
}

// ListQuestionsBySubject returns every question under the subject's chapters.
func (q *Queries) ListQuestionsBySubject(ctx context.Context, subjectID uuid.UUID) ([]models.Question, error) {
	rows, err := q.db.Query(ctx, `
		SELECT qu.id, qu.chapter_id, qu.text, qu.difficulty, qu.created_at
		FROM questions qu
		JOIN chapters c ON c.id = qu.chapter_id
		WHERE c.subject_id = $1
		ORDER BY qu.created_at, qu.id`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var qu models.Question
		if err := rows.Scan(&qu.ID, &qu.ChapterID, &qu.Text, &qu.Difficulty, &qu.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, qu)
	}
	return questions, rows.Err()
}
