package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicNotStarted = "not_started"
	TopicInProgress = "in_progress"
	TopicCompleted  = "completed"
)

const DefaultSubjectColor = "#3498db"

type Subject struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	ShareToken *string   `json:"share_token,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Chapter struct {
	ID          uuid.UUID  `json:"id"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	Name        string     `json:"name"`
	LastStudied *time.Time `json:"last_studied"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Topic struct {
	ID        uuid.UUID `json:"id"`
	ChapterID uuid.UUID `json:"chapter_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

type Question struct {
	ID         uuid.UUID `json:"id"`
	ChapterID  uuid.UUID `json:"chapter_id"`
	Text       string    `json:"text"`
	Difficulty string    `json:"difficulty"` // "easy" | "medium" | "hard"
	CreatedAt  time.Time `json:"created_at"`
}

// ChapterTree is a chapter with its topics loaded.
type ChapterTree struct {
	Chapter Chapter `json:"chapter"`
	Topics  []Topic `json:"topics"`
}

// SubjectTree is a subject with chapters, topics and sessions loaded; the
// read model the stats aggregator works from.
type SubjectTree struct {
	Subject  Subject        `json:"subject"`
	Chapters []ChapterTree  `json:"chapters"`
	Sessions []StudySession `json:"-"`
}

type CreateSubjectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CreateNamedRequest struct {
	Name string `json:"name"`
}

type UpdateTopicRequest struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type CreateQuestionRequest struct {
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
}
