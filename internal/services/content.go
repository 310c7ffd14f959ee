package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
)

const (
	maxNameLength  = 100
	maxTopicName   = 200
	maxTitleLength = 200
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var questionDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

// ContentService creates and edits the subject tree. Every write checks the
// User→Subject→Chapter→Topic chain before touching anything.
type ContentService struct {
	mutator *Mutator
	store   *repository.Store
	log     *logger.Logger
}

func NewContentService(mutator *Mutator, store *repository.Store, log *logger.Logger) *ContentService {
	return &ContentService{mutator: mutator, store: store, log: log.With("service", "content")}
}

func validateName(field, value string, limit int) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", &ValidationError{Fields: map[string]string{field: "Name is required"}}
	case utf8.RuneCountInString(value) > limit:
		return "", &ValidationError{Fields: map[string]string{field: fmt.Sprintf("Name must be at most %d characters", limit)}}
	}
	return value, nil
}

// collectFields copies a validation error's fields into dst.
func collectFields(dst map[string]string, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		for k, v := range verr.Fields {
			dst[k] = v
		}
	}
}

// validateTitle trims a reminder or event title and checks its length.
func validateTitle(fields map[string]string, value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		fields["title"] = "Title is required"
	case utf8.RuneCountInString(value) > maxTitleLength:
		fields["title"] = fmt.Sprintf("Title must be at most %d characters", maxTitleLength)
	}
	return value
}

func normalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return models.DefaultSubjectColor, nil
	}
	if !hexColorRegex.MatchString(color) {
		return "", &ValidationError{Fields: map[string]string{"color": "Color must be a hex value like #3498db"}}
	}
	return strings.ToLower(color), nil
}

func (s *ContentService) CreateSubject(ctx context.Context, userID uuid.UUID, req models.CreateSubjectRequest) (*models.Subject, error) {
	name, err := validateName("name", req.Name, maxNameLength)
	if err != nil {
		return nil, err
	}
	color, err := normalizeColor(req.Color)
	if err != nil {
		return nil, err
	}

	subject := &models.Subject{UserID: userID, Name: name, Color: color}
	err = s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		if err := sc.Q.CreateSubject(ctx, subject); err != nil {
			return fmt.Errorf("failed to create subject: %w", err)
		}
		_, err := sc.AddPoints(ctx, progress.PointsSubjectAdded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *ContentService) ListSubjects(ctx context.Context, userID uuid.UUID) ([]models.Subject, error) {
	return s.store.ListSubjects(ctx, userID)
}

func (s *ContentService) CreateChapter(ctx context.Context, userID, subjectID uuid.UUID, req models.CreateNamedRequest) (*models.Chapter, error) {
	name, err := validateName("name", req.Name, maxNameLength)
	if err != nil {
		return nil, err
	}

	chapter := &models.Chapter{SubjectID: subjectID, Name: name}
	err = s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		subject, err := sc.Q.GetSubject(ctx, subjectID)
		if err != nil {
			return notFound(err, "Subject")
		}
		if subject.UserID != userID {
			return &ForbiddenError{Message: "You do not have access to this subject"}
		}
		if err := sc.Q.CreateChapter(ctx, chapter); err != nil {
			return fmt.Errorf("failed to create chapter: %w", err)
		}
		_, err = sc.AddPoints(ctx, progress.PointsChapterAdded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

func (s *ContentService) CreateTopic(ctx context.Context, userID, chapterID uuid.UUID, req models.CreateNamedRequest) (*models.Topic, error) {
	name, err := validateName("name", req.Name, maxTopicName)
	if err != nil {
		return nil, err
	}

	topic := &models.Topic{ChapterID: chapterID, Name: name, Status: models.TopicNotStarted}
	err = s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		owner, err := sc.Q.ChapterOwnership(ctx, chapterID)
		if err := requireOwner(owner, err, userID, "chapter"); err != nil {
			return err
		}
		if err := sc.Q.CreateTopic(ctx, topic); err != nil {
			return fmt.Errorf("failed to create topic: %w", err)
		}
		if err := sc.Q.TouchChapter(ctx, chapterID, sc.Now); err != nil {
			return fmt.Errorf("failed to touch chapter: %w", err)
		}
		_, err = sc.AddPoints(ctx, progress.PointsTopicAdded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *ContentService) GetTopic(ctx context.Context, userID, topicID uuid.UUID) (*models.Topic, error) {
	owner, err := s.store.TopicOwnership(ctx, topicID)
	if err := requireOwner(owner, err, userID, "topic"); err != nil {
		return nil, err
	}
	topic, err := s.store.GetTopic(ctx, topicID)
	if err != nil {
		return nil, notFound(err, "Topic")
	}
	return topic, nil
}

// UpdateTopicNotes replaces the topic's notes and marks its chapter as
// studied. Notes earn no points.
func (s *ContentService) UpdateTopicNotes(ctx context.Context, userID, topicID uuid.UUID, notes string) (*models.Topic, error) {
	var topic *models.Topic
	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		owner, err := sc.Q.TopicOwnership(ctx, topicID)
		if err := requireOwner(owner, err, userID, "topic"); err != nil {
			return err
		}
		if err := sc.Q.UpdateTopicNotes(ctx, topicID, notes); err != nil {
			return notFound(err, "Topic")
		}
		if err := sc.Q.TouchChapter(ctx, owner.ChapterID, sc.Now); err != nil {
			return fmt.Errorf("failed to touch chapter: %w", err)
		}
		topic, err = sc.Q.GetTopic(ctx, topicID)
		if err != nil {
			return notFound(err, "Topic")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *ContentService) CreateQuestion(ctx context.Context, userID, chapterID uuid.UUID, req models.CreateQuestionRequest) (*models.Question, error) {
	text := strings.TrimSpace(req.Text)
	fields := map[string]string{}
	if text == "" {
		fields["text"] = "Question text is required"
	}
	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	if difficulty == "" {
		difficulty = "medium"
	}
	if !questionDifficulties[difficulty] {
		fields["difficulty"] = "Difficulty must be easy, medium, or hard"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	question := &models.Question{ChapterID: chapterID, Text: text, Difficulty: difficulty}
	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		owner, err := sc.Q.ChapterOwnership(ctx, chapterID)
		if err := requireOwner(owner, err, userID, "chapter"); err != nil {
			return err
		}
		if err := sc.Q.CreateQuestion(ctx, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		if err := sc.Q.TouchChapter(ctx, chapterID, sc.Now); err != nil {
			return fmt.Errorf("failed to touch chapter: %w", err)
		}
		_, err = sc.AddPoints(ctx, progress.PointsQuestionAdded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// CreateFlashcard adds a card to a topic. New cards are unscheduled and only
// become due after their first review.
func (s *ContentService) CreateFlashcard(ctx context.Context, userID, topicID uuid.UUID, req models.CreateFlashcardRequest) (*models.Flashcard, error) {
	front, back := strings.TrimSpace(req.Front), strings.TrimSpace(req.Back)
	fields := map[string]string{}
	if front == "" {
		fields["front"] = "Front is required"
	}
	if back == "" {
		fields["back"] = "Back is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	card := &models.Flashcard{TopicID: topicID, Front: front, Back: back}
	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		owner, err := sc.Q.TopicOwnership(ctx, topicID)
		if err := requireOwner(owner, err, userID, "topic"); err != nil {
			return err
		}
		if err := sc.Q.CreateFlashcard(ctx, card); err != nil {
			return fmt.Errorf("failed to create flashcard: %w", err)
		}
		if err := sc.Q.TouchChapter(ctx, owner.ChapterID, sc.Now); err != nil {
			return fmt.Errorf("failed to touch chapter: %w", err)
		}
		_, err = sc.AddPoints(ctx, progress.PointsFlashcardCreated)
		return err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (s *ContentService) ListFlashcards(ctx context.Context, userID, topicID uuid.UUID) ([]models.Flashcard, error) {
	owner, err := s.store.TopicOwnership(ctx, topicID)
	if err := requireOwner(owner, err, userID, "topic"); err != nil {
		return nil, err
	}
	return s.store.ListFlashcardsByTopic(ctx, topicID)
}

// ShareSubject returns the subject's share token, creating one on first use.
func (s *ContentService) ShareSubject(ctx context.Context, userID, subjectID uuid.UUID) (string, error) {
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return "", notFound(err, "Subject")
	}
	if subject.UserID != userID {
		return "", &ForbiddenError{Message: "You do not have access to this subject"}
	}
	if subject.ShareToken != nil {
		return *subject.ShareToken, nil
	}
	token, err := s.store.EnsureShareToken(ctx, subjectID, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("failed to store share token: %w", err)
	}
	s.log.Info("subject shared", "user_id", userID.String(), "subject_id", subjectID.String())
	return token, nil
}
