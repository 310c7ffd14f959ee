package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
)

// TransferService exports a user's study data as one JSON document and
// imports the same shape back.
type TransferService struct {
	mutator *Mutator
	store   *repository.Store
	log     *logger.Logger
}

func NewTransferService(mutator *Mutator, store *repository.Store, log *logger.Logger) *TransferService {
	return &TransferService{mutator: mutator, store: store, log: log.With("service", "transfer")}
}

func (s *TransferService) Export(ctx context.Context, userID uuid.UUID) (*models.ExportDocument, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	trees, err := s.store.ListSubjectTrees(ctx, userID)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.ListUserFlashcards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	reminders, err := s.store.ListReminders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return buildExport(user, trees, cards, reminders), nil
}

func buildExport(user *models.User, trees []models.SubjectTree, cards []models.Flashcard, reminders []models.Reminder) *models.ExportDocument {
	cardsByTopic := map[uuid.UUID][]models.ExportFlashcard{}
	for _, c := range cards {
		cardsByTopic[c.TopicID] = append(cardsByTopic[c.TopicID], models.ExportFlashcard{
			Front:        c.Front,
			Back:         c.Back,
			MasteryLevel: c.MasteryLevel,
		})
	}

	doc := &models.ExportDocument{
		User: models.ExportUser{
			Username: user.Username,
			Points:   user.Points,
			Streak:   user.Streak,
			Level:    user.Level,
		},
		Subjects:  make([]models.ExportSubject, 0, len(trees)),
		Reminders: make([]models.ExportReminder, 0, len(reminders)),
	}

	for _, tree := range trees {
		subject := models.ExportSubject{
			Name:     tree.Subject.Name,
			Color:    tree.Subject.Color,
			Chapters: make([]models.ExportChapter, 0, len(tree.Chapters)),
		}
		for _, ch := range tree.Chapters {
			chapter := models.ExportChapter{Name: ch.Chapter.Name, Topics: make([]models.ExportTopic, 0, len(ch.Topics))}
			for _, t := range ch.Topics {
				fc := cardsByTopic[t.ID]
				if fc == nil {
					fc = []models.ExportFlashcard{}
				}
				chapter.Topics = append(chapter.Topics, models.ExportTopic{
					Name:       t.Name,
					Status:     t.Status,
					Progress:   t.Progress,
					Notes:      t.Notes,
					Flashcards: fc,
				})
			}
			subject.Chapters = append(subject.Chapters, chapter)
		}
		doc.Subjects = append(doc.Subjects, subject)
	}

	for _, r := range reminders {
		doc.Reminders = append(doc.Reminders, models.ExportReminder{
			Title:        r.Title,
			Description:  r.Description,
			ReminderTime: r.ReminderTime.UTC().Format(time.RFC3339),
			Repeat:       r.Repeat,
		})
	}
	return doc
}

// parsedReminder is an imported reminder with its time already parsed.
type parsedReminder struct {
	models.ExportReminder
	at time.Time
}

// normalizeImport validates an import document and fixes up values that are
// clamped rather than rejected. Missing names and bad timestamps are errors.
func normalizeImport(doc *models.ExportDocument) ([]parsedReminder, error) {
	fields := map[string]string{}

	for i := range doc.Subjects {
		sub := &doc.Subjects[i]
		name, err := validateName(fmt.Sprintf("subjects[%d].name", i), sub.Name, maxNameLength)
		collectFields(fields, err)
		sub.Name = name
		if color, err := normalizeColor(sub.Color); err != nil {
			sub.Color = models.DefaultSubjectColor
		} else {
			sub.Color = color
		}

		for j := range sub.Chapters {
			ch := &sub.Chapters[j]
			name, err := validateName(fmt.Sprintf("subjects[%d].chapters[%d].name", i, j), ch.Name, maxNameLength)
			collectFields(fields, err)
			ch.Name = name

			for k := range ch.Topics {
				t := &ch.Topics[k]
				name, err := validateName(fmt.Sprintf("subjects[%d].chapters[%d].topics[%d].name", i, j, k), t.Name, maxTopicName)
				collectFields(fields, err)
				t.Name = name
				if !progress.ValidTopicStatus(t.Status) {
					t.Status = models.TopicNotStarted
				}
				t.Progress = progress.ClampProgress(t.Progress)

				for l := range t.Flashcards {
					f := &t.Flashcards[l]
					if strings.TrimSpace(f.Front) == "" || strings.TrimSpace(f.Back) == "" {
						fields[fmt.Sprintf("subjects[%d].chapters[%d].topics[%d].flashcards[%d]", i, j, k, l)] = "Front and back are required"
					}
					f.MasteryLevel = progress.ClampMastery(f.MasteryLevel)
				}
			}
		}
	}

	reminders := make([]parsedReminder, 0, len(doc.Reminders))
	for i, r := range doc.Reminders {
		r.Title = strings.TrimSpace(r.Title)
		switch {
		case r.Title == "":
			fields[fmt.Sprintf("reminders[%d].title", i)] = "Title is required"
		case utf8.RuneCountInString(r.Title) > maxTitleLength:
			fields[fmt.Sprintf("reminders[%d].title", i)] = fmt.Sprintf("Title must be at most %d characters", maxTitleLength)
		}
		if r.Repeat == "" || !validRepeat(r.Repeat) {
			r.Repeat = models.RepeatOnce
		}
		at, err := parseReminderTime(r.ReminderTime)
		if err != nil {
			fields[fmt.Sprintf("reminders[%d].reminder_time", i)] = "Reminder time must be RFC3339"
		}
		reminders = append(reminders, parsedReminder{ExportReminder: r, at: at})
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return reminders, nil
}

// parseReminderTime accepts RFC3339 and the zone-less form older exports used.
func parseReminderTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Import recreates the document's content under the user in one transaction
// and awards the import bonus. Any failure rolls back the whole import.
// Imported cards start unscheduled.
func (s *TransferService) Import(ctx context.Context, userID uuid.UUID, doc *models.ExportDocument) (*models.ImportResult, error) {
	reminders, err := normalizeImport(doc)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{}
	err = s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		*result = models.ImportResult{}

		for _, sub := range doc.Subjects {
			subject := &models.Subject{UserID: userID, Name: sub.Name, Color: sub.Color}
			if err := sc.Q.CreateSubject(ctx, subject); err != nil {
				return fmt.Errorf("failed to import subject %q: %w", sub.Name, err)
			}
			result.Subjects++

			for _, ch := range sub.Chapters {
				chapter := &models.Chapter{SubjectID: subject.ID, Name: ch.Name}
				if err := sc.Q.CreateChapter(ctx, chapter); err != nil {
					return fmt.Errorf("failed to import chapter %q: %w", ch.Name, err)
				}
				result.Chapters++

				for _, t := range ch.Topics {
					topic := &models.Topic{ChapterID: chapter.ID, Name: t.Name, Status: t.Status, Progress: t.Progress, Notes: t.Notes}
					if err := sc.Q.CreateTopic(ctx, topic); err != nil {
						return fmt.Errorf("failed to import topic %q: %w", t.Name, err)
					}
					result.Topics++

					for _, f := range t.Flashcards {
						card := &models.Flashcard{TopicID: topic.ID, Front: f.Front, Back: f.Back, MasteryLevel: f.MasteryLevel}
						if err := sc.Q.CreateFlashcard(ctx, card); err != nil {
							return fmt.Errorf("failed to import flashcard: %w", err)
						}
						result.Flashcards++
					}
				}
			}
		}

		for _, r := range reminders {
			reminder := &models.Reminder{
				UserID:       userID,
				Title:        r.Title,
				Description:  r.Description,
				ReminderTime: r.at,
				Repeat:       r.Repeat,
			}
			if err := sc.Q.CreateReminder(ctx, reminder); err != nil {
				return fmt.Errorf("failed to import reminder %q: %w", r.Title, err)
			}
			result.Reminders++
		}

		leveled, err := sc.AddPoints(ctx, progress.PointsImport)
		if err != nil {
			return err
		}
		result.PointsEarned = progress.PointsImport
		result.LeveledUp = leveled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("data imported",
		"user_id", userID.String(),
		"subjects", result.Subjects,
		"topics", result.Topics,
		"flashcards", result.Flashcards,
		"reminders", result.Reminders,
	)
	return result, nil
}
