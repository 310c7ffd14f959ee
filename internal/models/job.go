package models

import (
	"time"

	"github.com/google/uuid"
)

// ReminderJob is queued when a reminder comes due and consumed by the worker pool.
type ReminderJob struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	ReminderID   uuid.UUID `json:"reminder_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ReminderTime time.Time `json:"reminder_time"`
	Repeat       string    `json:"repeat"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

type ReminderDueEvent struct {
	ReminderID   uuid.UUID `json:"reminder_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ReminderTime time.Time `json:"reminder_time"`
	Repeat       string    `json:"repeat"`
}
