package models

// Export document layout. Import accepts the same shape.

type ExportDocument struct {
	User      ExportUser       `json:"user"`
	Subjects  []ExportSubject  `json:"subjects"`
	Reminders []ExportReminder `json:"reminders"`
}

type ExportUser struct {
	Username string `json:"username"`
	Points   int    `json:"points"`
	Streak   int    `json:"streak"`
	Level    int    `json:"level"`
}

type ExportSubject struct {
	Name     string          `json:"name"`
	Color    string          `json:"color"`
	Chapters []ExportChapter `json:"chapters"`
}

type ExportChapter struct {
	Name   string        `json:"name"`
	Topics []ExportTopic `json:"topics"`
}

type ExportTopic struct {
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	Progress   int               `json:"progress"`
	Notes      string            `json:"notes"`
	Flashcards []ExportFlashcard `json:"flashcards"`
}

type ExportFlashcard struct {
	Front        string `json:"front"`
	Back         string `json:"back"`
	MasteryLevel int    `json:"mastery_level"`
}

type ExportReminder struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ReminderTime string `json:"reminder_time"` // RFC3339
	Repeat       string `json:"repeat"`
}

type ImportResult struct {
	Subjects     int  `json:"subjects"`
	Chapters     int  `json:"chapters"`
	Topics       int  `json:"topics"`
	Flashcards   int  `json:"flashcards"`
	Reminders    int  `json:"reminders"`
	PointsEarned int  `json:"points_earned"`
	LeveledUp    bool `json:"leveled_up"`
}
