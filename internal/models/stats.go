package models

import "github.com/google/uuid"

type SubjectSummary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Color           string    `json:"color"`
	Progress        int       `json:"progress"`
	TotalTopics     int       `json:"total_topics"`
	CompletedTopics int       `json:"completed_topics"`
	StudyMinutes    int       `json:"study_time"`
}

type StatsTotals struct {
	TotalTopics       int `json:"total_topics"`
	CompletedTopics   int `json:"completed_topics"`
	TotalStudyMinutes int `json:"total_study_time"`
	AverageProgress   int `json:"total_progress"`
}

type SubjectStats struct {
	Subjects []SubjectSummary `json:"subjects"`
	Totals   StatsTotals      `json:"totals"`
}

type DailyStudyTime struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Minutes int    `json:"minutes"`
}

type MasteryDistribution struct {
	Beginner     int `json:"beginner"`
	Intermediate int `json:"intermediate"`
	Advanced     int `json:"advanced"`
	Master       int `json:"master"`
}

type Statistics struct {
	Stats            SubjectStats         `json:"stats"`
	Achievements     AchievementsOverview `json:"achievements"`
	DailyStudyTime   []DailyStudyTime     `json:"daily_study_time"`
	SubjectStudyTime map[string]int       `json:"subject_study_time"`
	CompletionRate   float64              `json:"completion_rate"`
	FlashcardMastery MasteryDistribution  `json:"flashcard_mastery"`
}

type Dashboard struct {
	Stats             SubjectStats         `json:"stats"`
	Achievements      AchievementsOverview `json:"achievements"`
	UpcomingReminders []Reminder           `json:"upcoming_reminders"`
	DueFlashcards     []Flashcard          `json:"due_flashcards"`
	RecentSessions    []StudySession       `json:"recent_sessions"`
}

type ChapterDetail struct {
	Chapter     Chapter    `json:"chapter"`
	Topics      []Topic    `json:"topics"`
	Questions   []Question `json:"questions"`
	RevisionTip string     `json:"revision_tip"`
}

type SubjectDetail struct {
	Subject        Subject         `json:"subject"`
	Chapters       []ChapterDetail `json:"chapters"`
	RunningSession *StudySession   `json:"running_session"`
	DueFlashcards  []Flashcard     `json:"due_flashcards"`
}

type SharedSubject struct {
	Subject Subject      `json:"subject"`
	Stats   SubjectStats `json:"stats"`
}
