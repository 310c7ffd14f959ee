package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

const flashcardColumns = `f.id, f.topic_id, f.front, f.back, f.next_review, f.review_count, f.mastery_level, f.created_at`

// flashcardsOfUser joins a flashcard alias f up to its owning subject.
const flashcardsOfUser = `
	FROM flashcards f
	JOIN topics t ON t.id = f.topic_id
	JOIN chapters c ON c.id = t.chapter_id
	JOIN subjects s ON s.id = c.subject_id
	WHERE s.user_id = $1`

func scanFlashcard(row interface{ Scan(...any) error }) (*models.Flashcard, error) {
	f := &models.Flashcard{}
	err := row.Scan(&f.ID, &f.TopicID, &f.Front, &f.Back, &f.NextReview, &f.ReviewCount, &f.MasteryLevel, &f.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return f, nil
}

func (q *Queries) listFlashcards(ctx context.Context, query string, args ...any) ([]models.Flashcard, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cards := []models.Flashcard{}
	for rows.Next() {
		f, err := scanFlashcard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *f)
	}
	return cards, rows.Err()
}

func (q *Queries) CreateFlashcard(ctx context.Context, f *models.Flashcard) error {
	f.ID = uuid.New()
	return mapErr(q.db.QueryRow(ctx, `
		INSERT INTO flashcards (id, topic_id, front, back, next_review, review_count, mastery_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		f.ID, f.TopicID, f.Front, f.Back, f.NextReview, f.ReviewCount, f.MasteryLevel,
	).Scan(&f.CreatedAt))
}

func (q *Queries) GetFlashcardForUpdate(ctx context.Context, id uuid.UUID) (*models.Flashcard, error) {
	return scanFlashcard(q.db.QueryRow(ctx, `SELECT `+flashcardColumns+` FROM flashcards f WHERE f.id = $1 FOR UPDATE`, id))
}

func (q *Queries) ListFlashcardsByTopic(ctx context.Context, topicID uuid.UUID) ([]models.Flashcard, error) {
	return q.listFlashcards(ctx, `SELECT `+flashcardColumns+` FROM flashcards f WHERE f.topic_id = $1 ORDER BY f.created_at, f.id`, topicID)
}

func (q *Queries) ListUserFlashcards(ctx context.Context, userID uuid.UUID) ([]models.Flashcard, error) {
	return q.listFlashcards(ctx, `SELECT `+flashcardColumns+flashcardsOfUser+` ORDER BY f.created_at, f.id`, userID)
}

// ListDueFlashcards returns the user's cards whose review time has passed.
// Cards never scheduled are excluded.
func (q *Queries) ListDueFlashcards(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Flashcard, error) {
	return q.listFlashcards(ctx, `SELECT `+flashcardColumns+flashcardsOfUser+`
		AND f.next_review IS NOT NULL
		AND f.next_review <= $2
		ORDER BY f.next_review, f.id`, userID, now)
}

func (q *Queries) UpdateFlashcardReview(ctx context.Context, f *models.Flashcard) error {
	return requireRow(q.db.Exec(ctx, `
		UPDATE flashcards SET mastery_level = $1, review_count = $2, next_review = $3
		WHERE id = $4`,
		f.MasteryLevel, f.ReviewCount, f.NextReview, f.ID,
	))
}

func (q *Queries) CountMasteredFlashcards(ctx context.Context, userID uuid.UUID, minLevel int) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT COUNT(*)`+flashcardsOfUser+` AND f.mastery_level >= $2`, userID, minLevel).Scan(&n)
	return n, err
}

func (q *Queries) FlashcardOwnership(ctx context.Context, cardID uuid.UUID) (Ownership, error) {
	var o Ownership
	err := q.db.QueryRow(ctx, `
		SELECT s.user_id, s.id, c.id, t.id
		FROM flashcards f
		JOIN topics t ON t.id = f.topic_id
		JOIN chapters c ON c.id = t.chapter_id
		JOIN subjects s ON s.id = c.subject_id
		WHERE f.id = $1`, cardID).Scan(&o.UserID, &o.SubjectID, &o.ChapterID, &o.TopicID)
	return o, mapErr(err)
}
