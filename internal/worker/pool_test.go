package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/services"
)

type stubPublisher struct {
	userID uuid.UUID
	msgs   []models.WSMessage
	err    error
}

func (s *stubPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error {
	s.userID = userID
	s.msgs = append(s.msgs, msg)
	return s.err
}

func TestBuildJobs(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	reminders := []models.Reminder{
		{ID: uuid.New(), UserID: uuid.New(), Title: "Review chapter 3", ReminderTime: now.Add(-time.Minute), Repeat: models.RepeatDaily},
		{ID: uuid.New(), UserID: uuid.New(), Title: "Exam", ReminderTime: now, Repeat: models.RepeatOnce},
	}

	jobs := buildJobs(reminders, now)
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID == jobs[1].ID || jobs[0].ID == uuid.Nil {
		t.Fatalf("expected distinct job ids")
	}
	if jobs[0].ReminderID != reminders[0].ID || jobs[0].UserID != reminders[0].UserID || !jobs[0].EnqueuedAt.Equal(now) {
		t.Fatalf("unexpected job %+v", jobs[0])
	}

	payloads, err := encodeJobs(jobs)
	if err != nil {
		t.Fatalf("encodeJobs: %v", err)
	}
	var decoded models.ReminderJob
	if err := json.Unmarshal([]byte(payloads[1].(string)), &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.Title != "Exam" || decoded.Repeat != models.RepeatOnce {
		t.Fatalf("unexpected decoded job %+v", decoded)
	}
}

func TestDeliver(t *testing.T) {
	job := &models.ReminderJob{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		ReminderID: uuid.New(),
		Title:      "Flashcards",
		Repeat:     models.RepeatWeekly,
	}
	pub := &stubPublisher{}

	if err := deliver(context.Background(), pub, job); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if pub.userID != job.UserID || len(pub.msgs) != 1 {
		t.Fatalf("expected one message for the job owner")
	}
	if pub.msgs[0].Type != services.EventReminderDue {
		t.Fatalf("unexpected type %q", pub.msgs[0].Type)
	}
	event, ok := pub.msgs[0].Payload.(models.ReminderDueEvent)
	if !ok || event.ReminderID != job.ReminderID || event.Title != "Flashcards" {
		t.Fatalf("unexpected payload %+v", pub.msgs[0].Payload)
	}

	pub.err = errors.New("redis down")
	if err := deliver(context.Background(), pub, job); err == nil {
		t.Fatalf("expected publish error to propagate")
	}
}

func TestSleepCtx_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleepCtx(ctx, time.Minute)
	if time.Since(start) > time.Second {
		t.Fatalf("sleepCtx ignored cancellation")
	}
}

type memoryClaims struct {
	keys map[string]time.Duration
	err  error
}

func (m *memoryClaims) claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if _, taken := m.keys[key]; taken {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

func TestHandle_SkipsDuplicateJobsForSameReminder(t *testing.T) {
	claims := &memoryClaims{keys: map[string]time.Duration{}}
	pub := &stubPublisher{}
	p := &Pool{publisher: pub, claim: claims.claim, log: logger.Nop()}

	reminderID := uuid.New()
	first := &models.ReminderJob{ID: uuid.New(), UserID: uuid.New(), ReminderID: reminderID, Title: "Revise"}
	second := *first
	second.ID = uuid.New()

	p.handle(context.Background(), 1, first)
	p.handle(context.Background(), 2, &second)
	if len(pub.msgs) != 1 {
		t.Fatalf("expected one delivery for two jobs of the same reminder, got %d", len(pub.msgs))
	}
	if ttl, ok := claims.keys[jobLockKey(reminderID)]; !ok || ttl != jobLockTTL {
		t.Fatalf("expected reminder lock to be held with ttl %v, got %v", jobLockTTL, claims.keys)
	}

	other := &models.ReminderJob{ID: uuid.New(), UserID: uuid.New(), ReminderID: uuid.New(), Title: "Exam"}
	p.handle(context.Background(), 1, other)
	if len(pub.msgs) != 2 {
		t.Fatalf("expected a different reminder to be delivered")
	}
}

func TestHandle_LockErrorSkipsDelivery(t *testing.T) {
	claims := &memoryClaims{keys: map[string]time.Duration{}, err: errors.New("redis down")}
	pub := &stubPublisher{}
	p := &Pool{publisher: pub, claim: claims.claim, log: logger.Nop()}

	p.handle(context.Background(), 1, &models.ReminderJob{ID: uuid.New(), ReminderID: uuid.New()})
	if len(pub.msgs) != 0 {
		t.Fatalf("expected no delivery without the lock")
	}
}
