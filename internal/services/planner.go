package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
	"studyplanner-backend/internal/repository"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"

	defaultEventType = "study"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// PlannerService manages reminders and calendar events.
type PlannerService struct {
	mutator *Mutator
	store   *repository.Store
	log     *logger.Logger
}

func NewPlannerService(mutator *Mutator, store *repository.Store, log *logger.Logger) *PlannerService {
	return &PlannerService{mutator: mutator, store: store, log: log.With("service", "planner")}
}

// NextOccurrence returns when a recurring reminder fires next. The second
// result is false for one-off reminders.
func NextOccurrence(at time.Time, repeat string) (time.Time, bool) {
	switch repeat {
	case models.RepeatDaily:
		return at.AddDate(0, 0, 1), true
	case models.RepeatWeekly:
		return at.AddDate(0, 0, 7), true
	case models.RepeatMonthly:
		return at.AddDate(0, 0, 30), true
	default:
		return time.Time{}, false
	}
}

func validRepeat(repeat string) bool {
	switch repeat {
	case models.RepeatOnce, models.RepeatDaily, models.RepeatWeekly, models.RepeatMonthly:
		return true
	}
	return false
}

// MonthRange parses "YYYY-MM" into [first day, first day of next month). An
// empty month means the month containing now.
func MonthRange(month string, now time.Time) (time.Time, time.Time, error) {
	var start time.Time
	if strings.TrimSpace(month) == "" {
		now = now.UTC()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse(monthLayout, month)
		if err != nil {
			return time.Time{}, time.Time{}, &ValidationError{Fields: map[string]string{"month": "Month must be formatted as YYYY-MM"}}
		}
		start = parsed
	}
	return start, start.AddDate(0, 1, 0), nil
}

func (s *PlannerService) checkLinks(ctx context.Context, q TxQueries, userID uuid.UUID, subjectID, topicID *uuid.UUID) error {
	if subjectID != nil {
		subject, err := q.GetSubject(ctx, *subjectID)
		if err != nil {
			return notFound(err, "Subject")
		}
		if subject.UserID != userID {
			return &ForbiddenError{Message: "You do not have access to this subject"}
		}
	}
	if topicID != nil {
		owner, err := q.TopicOwnership(ctx, *topicID)
		if err := requireOwner(owner, err, userID, "topic"); err != nil {
			return err
		}
	}
	return nil
}

func (s *PlannerService) CreateReminder(ctx context.Context, userID uuid.UUID, req models.CreateReminderRequest) (*models.Reminder, error) {
	fields := map[string]string{}
	title := validateTitle(fields, req.Title)
	if req.ReminderTime.IsZero() {
		fields["reminder_time"] = "Reminder time is required"
	}
	repeat := req.Repeat
	if repeat == "" {
		repeat = models.RepeatOnce
	}
	if !validRepeat(repeat) {
		fields["repeat"] = "Repeat must be once, daily, weekly, or monthly"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	reminder := &models.Reminder{
		UserID:       userID,
		SubjectID:    req.SubjectID,
		TopicID:      req.TopicID,
		Title:        title,
		Description:  req.Description,
		ReminderTime: req.ReminderTime.UTC(),
		Repeat:       repeat,
	}
	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		if err := s.checkLinks(ctx, sc.Q, userID, req.SubjectID, req.TopicID); err != nil {
			return err
		}
		if err := sc.Q.CreateReminder(ctx, reminder); err != nil {
			return fmt.Errorf("failed to create reminder: %w", err)
		}
		_, err := sc.AddPoints(ctx, progress.PointsReminderAdded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *PlannerService) ListReminders(ctx context.Context, userID uuid.UUID) ([]models.Reminder, error) {
	return s.store.ListReminders(ctx, userID)
}

// CompleteReminder marks the reminder done and, for recurring reminders,
// schedules the next one. Returns the follow-up reminder when one was created.
func (s *PlannerService) CompleteReminder(ctx context.Context, userID, reminderID uuid.UUID) (*models.Reminder, error) {
	var next *models.Reminder

	err := s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		reminder, err := sc.Q.GetReminderForUpdate(ctx, reminderID)
		if err != nil {
			return notFound(err, "Reminder")
		}
		if reminder.UserID != userID {
			return &ForbiddenError{Message: "You do not have access to this reminder"}
		}
		if reminder.IsCompleted {
			return &ConflictError{Message: "Reminder is already completed"}
		}

		if err := sc.Q.CompleteReminder(ctx, reminderID); err != nil {
			return fmt.Errorf("failed to complete reminder: %w", err)
		}
		if at, ok := NextOccurrence(reminder.ReminderTime, reminder.Repeat); ok {
			next = &models.Reminder{
				UserID:       userID,
				SubjectID:    reminder.SubjectID,
				TopicID:      reminder.TopicID,
				Title:        reminder.Title,
				Description:  reminder.Description,
				ReminderTime: at,
				Repeat:       reminder.Repeat,
			}
			if err := sc.Q.CreateReminder(ctx, next); err != nil {
				return fmt.Errorf("failed to schedule next reminder: %w", err)
			}
		}

		_, err = sc.AddPoints(ctx, progress.PointsReminderCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *PlannerService) DeleteReminder(ctx context.Context, userID, reminderID uuid.UUID) error {
	reminder, err := s.store.GetReminder(ctx, reminderID)
	if err != nil {
		return notFound(err, "Reminder")
	}
	if reminder.UserID != userID {
		return &ForbiddenError{Message: "You do not have access to this reminder"}
	}
	return notFound(s.store.DeleteReminder(ctx, reminderID), "Reminder")
}

func parseEventRequest(userID uuid.UUID, req models.CreateEventRequest) (*models.StudyEvent, error) {
	fields := map[string]string{}
	title := validateTitle(fields, req.Title)
	date, err := time.Parse(dateLayout, req.EventDate)
	if err != nil {
		fields["event_date"] = "Event date must be formatted as YYYY-MM-DD"
	}
	for field, value := range map[string]*string{"start_time": req.StartTime, "end_time": req.EndTime} {
		if value != nil && *value != "" && !clockRegex.MatchString(*value) {
			fields[field] = "Time must be formatted as HH:MM"
		}
	}
	if len(fields) == 0 && req.StartTime != nil && req.EndTime != nil && *req.StartTime != "" && *req.EndTime != "" && *req.EndTime < *req.StartTime {
		fields["end_time"] = "End time must not be before start time"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		eventType = defaultEventType
	}
	return &models.StudyEvent{
		UserID:      userID,
		SubjectID:   req.SubjectID,
		Title:       title,
		Description: req.Description,
		EventDate:   date,
		StartTime:   emptyToNil(req.StartTime),
		EndTime:     emptyToNil(req.EndTime),
		EventType:   eventType,
	}, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func (s *PlannerService) CreateEvent(ctx context.Context, userID uuid.UUID, req models.CreateEventRequest) (*models.StudyEvent, error) {
	event, err := parseEventRequest(userID, req)
	if err != nil {
		return nil, err
	}

	err = s.mutator.Run(ctx, userID, func(ctx context.Context, sc *Scope) error {
		if err := s.checkLinks(ctx, sc.Q, userID, req.SubjectID, nil); err != nil {
			return err
		}
		if err := sc.Q.CreateStudyEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		_, err := sc.AddPoints(ctx, progress.PointsEventAdded)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *PlannerService) DeleteEvent(ctx context.Context, userID, eventID uuid.UUID) error {
	event, err := s.store.GetStudyEvent(ctx, eventID)
	if err != nil {
		return notFound(err, "Event")
	}
	if event.UserID != userID {
		return &ForbiddenError{Message: "You do not have access to this event"}
	}
	return notFound(s.store.DeleteStudyEvent(ctx, eventID), "Event")
}

func (s *PlannerService) ListEvents(ctx context.Context, userID uuid.UUID, month string) ([]models.StudyEvent, error) {
	from, to, err := MonthRange(month, s.mutator.now())
	if err != nil {
		return nil, err
	}
	return s.store.ListStudyEvents(ctx, userID, from, to)
}
