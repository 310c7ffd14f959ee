package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
)

// ProgressService handles the study events that feed the progress engine:
// timed sessions, topic status changes and flashcard reviews.
type ProgressService struct {
	mutator *Mutator
	log     *logger.Logger
}

func NewProgressService(mutator *Mutator, log *logger.Logger) *ProgressService {
	return &ProgressService{mutator: mutator, log: log.With("service", "progress")}
}

func (s *ProgressService) StartSession(ctx context.Context, userID, subjectID uuid.UUID) (*models.SessionResult, error) {
	result := &models.SessionResult{Achievements: []string{}}

	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		subject, err := sc.Q.GetSubject(ctx, subjectID)
		if err != nil {
			return notFound(err, "Subject")
		}
		if subject.UserID != userID {
			return &ForbiddenError{Message: "You do not have access to this subject"}
		}

		// only one session may run at a time per user
		open, err := sc.Q.GetOpenSession(ctx, userID)
		switch {
		case err == nil:
			if err := closeSession(ctx, sc, open); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("failed to load open session: %w", err)
		}

		session := &models.StudySession{
			UserID:    userID,
			SubjectID: subjectID,
			StartTime: sc.Now,
		}
		if err := sc.Q.StartSession(ctx, session); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		result.Session = session

		if result.Streak, err = sc.RecordStudyActivity(ctx); err != nil {
			return err
		}
		if result.LeveledUp, err = sc.AddPoints(ctx, progress.PointsSessionStart); err != nil {
			return err
		}
		result.PointsEarned = progress.PointsSessionStart
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("study session started", "user_id", userID.String(), "subject_id", subjectID.String())
	return result, nil
}

func (s *ProgressService) StopSession(ctx context.Context, userID, subjectID uuid.UUID) (*models.SessionResult, error) {
	result := &models.SessionResult{}

	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		session, err := sc.Q.GetOpenSessionForSubject(ctx, userID, subjectID)
		if err != nil {
			return notFound(err, "Running session")
		}
		if err := closeSession(ctx, sc, session); err != nil {
			return err
		}
		result.Session = session

		points := progress.SessionPoints(session.DurationMinutes)
		if result.LeveledUp, err = sc.AddPoints(ctx, points); err != nil {
			return err
		}
		result.PointsEarned = points

		result.Achievements, err = sc.CheckAchievements(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("study session stopped",
		"user_id", userID.String(),
		"subject_id", subjectID.String(),
		"minutes", result.Session.DurationMinutes,
		"points", result.PointsEarned,
	)
	return result, nil
}

func closeSession(ctx context.Context, sc *Scope, session *models.StudySession) error {
	end := sc.Now
	session.EndTime = &end
	session.DurationMinutes = progress.SessionDuration(session.StartTime, end)
	if err := sc.Q.CloseSession(ctx, session); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// validateTopicUpdate checks the request and returns the new status and
// progress. Progress outside [0,100] is clamped, not rejected.
func validateTopicUpdate(topic *models.Topic, req models.UpdateTopicRequest) (string, int, error) {
	status, prog := topic.Status, topic.Progress
	if req.Status != nil {
		if !progress.ValidTopicStatus(*req.Status) {
			return "", 0, &ValidationError{Fields: map[string]string{
				"status": "Status must be not_started, in_progress, or completed",
			}}
		}
		status = *req.Status
	}
	if req.Progress != nil {
		prog = progress.ClampProgress(*req.Progress)
	}
	return status, prog, nil
}

func (s *ProgressService) UpdateTopic(ctx context.Context, userID, topicID uuid.UUID, req models.UpdateTopicRequest) (*models.TopicUpdateResult, error) {
	result := &models.TopicUpdateResult{Achievements: []string{}}

	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		owner, err := sc.Q.TopicOwnership(ctx, topicID)
		if err := requireOwner(owner, err, userID, "topic"); err != nil {
			return err
		}
		topic, err := sc.Q.GetTopicForUpdate(ctx, topicID)
		if err != nil {
			return notFound(err, "Topic")
		}

		status, prog, err := validateTopicUpdate(topic, req)
		if err != nil {
			return err
		}
		completedNow := status == models.TopicCompleted && topic.Status != models.TopicCompleted

		topic.Status, topic.Progress = status, prog
		if err := sc.Q.UpdateTopicProgress(ctx, topic); err != nil {
			return fmt.Errorf("failed to update topic: %w", err)
		}
		if err := sc.Q.TouchChapter(ctx, owner.ChapterID, sc.Now); err != nil {
			return fmt.Errorf("failed to touch chapter: %w", err)
		}
		result.Topic = topic

		if !completedNow {
			return nil
		}
		if result.LeveledUp, err = sc.AddPoints(ctx, progress.PointsTopicCompleted); err != nil {
			return err
		}
		result.PointsEarned = progress.PointsTopicCompleted
		if result.Streak, err = sc.RecordStudyActivity(ctx); err != nil {
			return err
		}
		result.Achievements, err = sc.CheckAchievements(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *ProgressService) ReviewFlashcard(ctx context.Context, userID, cardID uuid.UUID, correct bool) (*models.ReviewResult, error) {
	result := &models.ReviewResult{}

	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		owner, err := sc.Q.FlashcardOwnership(ctx, cardID)
		if err := requireOwner(owner, err, userID, "flashcard"); err != nil {
			return err
		}
		card, err := sc.Q.GetFlashcardForUpdate(ctx, cardID)
		if err != nil {
			return notFound(err, "Flashcard")
		}

		if result.MasteryLevel, err = sc.ReviewFlashcard(ctx, card, correct); err != nil {
			return err
		}
		result.Flashcard = card
		if err := sc.Q.TouchChapter(ctx, owner.ChapterID, sc.Now); err != nil {
			return fmt.Errorf("failed to touch chapter: %w", err)
		}

		points := progress.ReviewPoints(correct)
		if result.LeveledUp, err = sc.AddPoints(ctx, points); err != nil {
			return err
		}
		result.PointsEarned = points

		result.Achievements, err = sc.CheckAchievements(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
