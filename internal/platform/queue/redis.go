package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and verifies it with a ping.
func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	return rdb, nil
}

// MessageEvent is pushed onto the queue whenever a private message is sent.
// The notification worker consumes these to maintain unread counters.
type MessageEvent struct {
	MessageID  string `json:"message_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

// MessageQueue is a Redis-backed event queue plus the per-user unread
// counters derived from it.
type MessageQueue struct {
	rdb       *redis.Client
	queueName string
}

func NewMessageQueue(rdb *redis.Client, queueName string) *MessageQueue {
	return &MessageQueue{rdb: rdb, queueName: queueName}
}

func (q *MessageQueue) Enqueue(ctx context.Context, event MessageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.queueName, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue message event: %w", err)
	}
	return nil
}

// Dequeue blocks until an event is available or the timeout elapses.
// A zero timeout blocks indefinitely.
func (q *MessageQueue) Dequeue(ctx context.Context, timeout time.Duration) (*MessageEvent, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		return nil, err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, fmt.Errorf("BRPop returned empty payload")
	}

	var event MessageEvent
	if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message event: %w", err)
	}
	return &event, nil
}

func unreadKey(userID string) string {
	return "unread:" + userID
}

func (q *MessageQueue) IncrUnread(ctx context.Context, userID string) error {
	return q.rdb.Incr(ctx, unreadKey(userID)).Err()
}

// UnreadCount returns the counter for the user. The second return value is
// false when no counter exists (cold Redis); callers fall back to the store.
func (q *MessageQueue) UnreadCount(ctx context.Context, userID string) (int64, bool, error) {
	val, err := q.rdb.Get(ctx, unreadKey(userID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read unread counter: %w", err)
	}
	return val, true, nil
}

func (q *MessageQueue) ResetUnread(ctx context.Context, userID string) error {
	return q.rdb.Set(ctx, unreadKey(userID), 0, 0).Err()
}
