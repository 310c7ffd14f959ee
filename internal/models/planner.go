package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RepeatOnce    = "once"
	RepeatDaily   = "daily"
	RepeatWeekly  = "weekly"
	RepeatMonthly = "monthly"
)

type Reminder struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	SubjectID    *uuid.UUID `json:"subject_id"`
	TopicID      *uuid.UUID `json:"topic_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ReminderTime time.Time  `json:"reminder_time"`
	IsCompleted  bool       `json:"is_completed"`
	Repeat       string     `json:"repeat"`
}

// StudyEvent is a calendar entry. Start and end are wall-clock "HH:MM" values.
type StudyEvent struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	SubjectID   *uuid.UUID `json:"subject_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EventDate   time.Time  `json:"event_date"`
	StartTime   *string    `json:"start_time"`
	EndTime     *string    `json:"end_time"`
	EventType   string     `json:"event_type"`
}

type CreateReminderRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ReminderTime time.Time  `json:"reminder_time"`
	Repeat       string     `json:"repeat"`
	SubjectID    *uuid.UUID `json:"subject_id"`
	TopicID      *uuid.UUID `json:"topic_id"`
}

type CreateEventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EventDate   string     `json:"event_date"` // YYYY-MM-DD
	StartTime   *string    `json:"start_time"`
	EndTime     *string    `json:"end_time"`
	EventType   string     `json:"event_type"`
	SubjectID   *uuid.UUID `json:"subject_id"`
}
