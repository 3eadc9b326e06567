// Package events публикует события регистраций в Redis-очередь для
// внешних потребителей (история, аналитика).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName — имя Redis-списка с событиями регистраций.
const DefaultQueueName = "arena_registrations"

// RegistrationRecord — минимальный снимок успешной регистрации.
type RegistrationRecord struct {
	TournamentID int   `json:"tournament_id"`
	UserID       int   `json:"user_id"`
	UsedSpots    int   `json:"used_spots"`
	Spots        int   `json:"spots"`
	Timestamp    int64 `json:"timestamp"`
}

// Feed оборачивает Redis-клиент. Nil-фид безопасен: публикации
// превращаются в no-op, когда Redis не сконфигурирован.
type Feed struct {
	client *redis.Client
	queue  string
}

func Connect(addr string, db int) (*Feed, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Feed{client: client, queue: DefaultQueueName}, nil
}

// PublishRegistration сериализует запись и кладёт её в очередь.
func (f *Feed) PublishRegistration(ctx context.Context, record RegistrationRecord) error {
	if f == nil || f.client == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal registration record: %w", err)
	}
	if err := f.client.RPush(ctx, f.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push registration record: %w", err)
	}
	return nil
}

func (f *Feed) Close() error {
	if f == nil || f.client == nil {
		return nil
	}
	return f.client.Close()
}
