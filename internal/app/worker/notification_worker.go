package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"sharebnb/internal/platform/queue"
)

// NotificationWorker consumes message events from the Redis queue and bumps
// the recipient's unread counter.
type NotificationWorker struct {
	queue *queue.MessageQueue
}

func NewNotificationWorker(q *queue.MessageQueue) *NotificationWorker {
	return &NotificationWorker{queue: q}
}

func (w *NotificationWorker) Start(ctx context.Context) {
	log.Println("Notification worker started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Notification worker stopping...")
			return
		default:
			// Bounded blocking pop so ctx cancellation is noticed promptly.
			event, err := w.queue.Dequeue(ctx, 5*time.Second)
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				log.Printf("ERROR: failed to dequeue message event: %v", err)
				time.Sleep(5 * time.Second) // Wait before retrying on other errors
				continue
			}

			if err := w.queue.IncrUnread(ctx, event.ToUserID); err != nil {
				log.Printf("ERROR: failed to bump unread counter for %s: %v", event.ToUserID, err)
			}
		}
	}
}
