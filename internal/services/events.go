package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/progress"
)

const (
	EventBadgeEarned = "badge_earned"
	EventLevelUp     = "level_up"
	EventReminderDue = "reminder_due"
)

// Publisher delivers live updates to a user's connected clients.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error
}

// UserChannel is the pub/sub channel the websocket hub listens on.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID.String())
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	return p.redis.Publish(ctx, UserChannel(userID), string(data)).Err()
}

// recordingUnitOfWork remembers the badges actually inserted during a
// transaction so they can be announced once it commits.
type recordingUnitOfWork struct {
	progress.UnitOfWork
	badges []models.Badge
}

func (r *recordingUnitOfWork) InsertBadge(ctx context.Context, b *models.Badge) (bool, error) {
	inserted, err := r.UnitOfWork.InsertBadge(ctx, b)
	if err == nil && inserted {
		r.badges = append(r.badges, *b)
	}
	return inserted, err
}

// outbox is the set of live events produced by one committed transaction.
type outbox struct {
	badges  []models.Badge
	levelUp *models.LevelUpEvent
}

func (o outbox) messages() []models.WSMessage {
	msgs := make([]models.WSMessage, 0, len(o.badges)+1)
	if o.levelUp != nil {
		msgs = append(msgs, models.WSMessage{Type: EventLevelUp, Payload: *o.levelUp})
	}
	for _, b := range o.badges {
		msgs = append(msgs, models.WSMessage{Type: EventBadgeEarned, Payload: models.BadgeEarnedEvent{Badge: b}})
	}
	return msgs
}
