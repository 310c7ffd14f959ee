package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyplanner-backend/internal/logger"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/services"
)

const (
	reminderQueue      = "queue:reminder-due"
	reminderClaimBatch = 100
	jobLockTTL         = 10 * time.Minute
	popTimeout         = 5 * time.Second
	retryBackoff       = time.Second
)

// ReminderStore hands out due reminders exactly once.
type ReminderStore interface {
	ClaimDueReminders(ctx context.Context, now time.Time, limit int) ([]models.Reminder, error)
}

// claimFunc sets key if it is absent and reports whether this caller won it.
type claimFunc func(ctx context.Context, key string, ttl time.Duration) (bool, error)

func redisClaim(client *redis.Client) claimFunc {
	return func(ctx context.Context, key string, ttl time.Duration) (bool, error) {
		return client.SetNX(ctx, key, "1", ttl).Result()
	}
}

func jobLockKey(reminderID uuid.UUID) string {
	return fmt.Sprintf("job_lock:reminder:%s", reminderID.String())
}

// Pool announces reminders as they come due. A gocron job claims due rows
// from Postgres and pushes them onto a Redis list; workers pop the list and
// publish a reminder_due event to the owner's channel.
type Pool struct {
	redis        *redis.Client
	store        ReminderStore
	publisher    services.Publisher
	claim        claimFunc
	scheduler    *gocron.Scheduler
	log          *logger.Logger
	workerCount  int
	pollInterval time.Duration
	now          func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(
	redisClient *redis.Client,
	store ReminderStore,
	publisher services.Publisher,
	workerCount int,
	pollInterval time.Duration,
	log *logger.Logger,
) *Pool {
	return &Pool{
		redis:        redisClient,
		store:        store,
		publisher:    publisher,
		claim:        redisClaim(redisClient),
		scheduler:    gocron.NewScheduler(time.UTC),
		log:          log.With("component", "worker"),
		workerCount:  max(workerCount, 1),
		pollInterval: pollInterval,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (p *Pool) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	_, err := p.scheduler.Every(p.pollInterval).SingletonMode().Do(func() {
		if err := p.enqueueDue(ctx); err != nil {
			p.log.Error("reminder scan failed", "error", err)
		}
	})
	if err != nil {
		p.cancel()
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	p.scheduler.StartAsync()

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.log.Info("worker pool started", "workers", p.workerCount, "poll_interval", p.pollInterval.String())
	return nil
}

// Stop halts the scheduler and waits for in-flight jobs.
func (p *Pool) Stop() {
	p.scheduler.Stop()
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) enqueueDue(ctx context.Context) error {
	now := p.now()
	reminders, err := p.store.ClaimDueReminders(ctx, now, reminderClaimBatch)
	if err != nil {
		return fmt.Errorf("failed to claim due reminders: %w", err)
	}
	if len(reminders) == 0 {
		return nil
	}

	payloads, err := encodeJobs(buildJobs(reminders, now))
	if err != nil {
		return err
	}
	if err := p.redis.RPush(ctx, reminderQueue, payloads...).Err(); err != nil {
		return fmt.Errorf("failed to enqueue reminder jobs: %w", err)
	}

	p.log.Debug("queued due reminders", "count", len(reminders))
	return nil
}

func buildJobs(reminders []models.Reminder, now time.Time) []models.ReminderJob {
	jobs := make([]models.ReminderJob, 0, len(reminders))
	for _, r := range reminders {
		jobs = append(jobs, models.ReminderJob{
			ID:           uuid.New(),
			UserID:       r.UserID,
			ReminderID:   r.ID,
			Title:        r.Title,
			Description:  r.Description,
			ReminderTime: r.ReminderTime,
			Repeat:       r.Repeat,
			EnqueuedAt:   now,
		})
	}
	return jobs
}

func encodeJobs(jobs []models.ReminderJob) ([]interface{}, error) {
	out := make([]interface{}, 0, len(jobs))
	for _, job := range jobs {
		data, err := json.Marshal(job)
		if err != nil {
			return nil, fmt.Errorf("failed to encode reminder job: %w", err)
		}
		out = append(out, string(data))
	}
	return out, nil
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			p.log.Debug("worker shutting down", "worker", id)
			return
		}

		result, err := p.redis.BLPop(ctx, popTimeout, reminderQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.log.Warn("queue pop failed", "worker", id, "error", err)
			sleepCtx(ctx, retryBackoff)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.ReminderJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Error("failed to parse reminder job", "worker", id, "error", err)
			continue
		}

		p.handle(ctx, id, &job)
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, job *models.ReminderJob) {
	// the lock is left to expire so a second job for the same reminder is dropped
	locked, err := p.claim(ctx, jobLockKey(job.ReminderID), jobLockTTL)
	if err != nil {
		p.log.Warn("failed to lock reminder job", "worker", workerID, "reminder_id", job.ReminderID, "error", err)
		return
	}
	if !locked {
		p.log.Debug("duplicate reminder job skipped", "worker", workerID, "reminder_id", job.ReminderID)
		return
	}

	if err := deliver(ctx, p.publisher, job); err != nil {
		p.log.Error("failed to deliver reminder", "worker", workerID, "reminder_id", job.ReminderID, "error", err)
		return
	}
	p.log.Debug("reminder delivered", "worker", workerID, "reminder_id", job.ReminderID, "user_id", job.UserID)
}

// deliver publishes the reminder_due event for a job.
func deliver(ctx context.Context, publisher services.Publisher, job *models.ReminderJob) error {
	return publisher.Publish(ctx, job.UserID, models.WSMessage{
		Type: services.EventReminderDue,
		Payload: models.ReminderDueEvent{
			ReminderID:   job.ReminderID,
			Title:        job.Title,
			Description:  job.Description,
			ReminderTime: job.ReminderTime,
			Repeat:       job.Repeat,
		},
	})
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
