package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
	"sharebnb/internal/domain/repository"
	"sharebnb/internal/platform/queue"
)

// Notifier publishes message events and tracks per-user unread counters.
// Backed by Redis in production; tests use an in-memory fake.
type Notifier interface {
	Enqueue(ctx context.Context, event queue.MessageEvent) error
	UnreadCount(ctx context.Context, userID string) (int64, bool, error)
	ResetUnread(ctx context.Context, userID string) error
}

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	notifier    Notifier
}

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository, notifier Notifier) *MessageService {
	return &MessageService{messageRepo: messageRepo, userRepo: userRepo, notifier: notifier}
}

type SendMessageRequest struct {
	ToUsername string `json:"to_username"`
	Text       string `json:"text"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

func (s *MessageService) Send(ctx context.Context, sender model.Identity, req SendMessageRequest) (*model.Message, error) {
	if req.ToUsername == "" || req.Text == "" {
		return nil, common.Errorf("recipient and text are required: %w", common.ErrBadRequest)
	}
	if len(req.Text) > model.MaxMessageTextLength {
		return nil, common.Errorf("message must be at most %d characters: %w", model.MaxMessageTextLength, common.ErrValidation)
	}

	recipient, err := s.userRepo.FindByUsername(ctx, req.ToUsername)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("recipient not found: %w", common.ErrNotFound)
		}
		return nil, err
	}
	if recipient.ID == sender.ID {
		return nil, common.Errorf("cannot message yourself: %w", common.ErrBadRequest)
	}

	message := &model.Message{
		ID:         uuid.NewString(),
		Text:       req.Text,
		FromUserID: sender.ID,
		ToUserID:   recipient.ID,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	// Notification delivery is best effort: the message is already persisted.
	if err := s.notifier.Enqueue(ctx, queue.MessageEvent{
		MessageID:  message.ID,
		FromUserID: sender.ID,
		ToUserID:   recipient.ID,
	}); err != nil {
		log.Printf("WARN: failed to enqueue message event for %s: %v", message.ID, err)
	}

	message.FromUsername = &sender.Username
	message.ToUsername = &recipient.Username
	return message, nil
}

// Inbox returns messages sent to the user and marks them read, resetting the
// unread counter.
func (s *MessageService) Inbox(ctx context.Context, identity model.Identity, page, pageSize int) ([]model.Message, int, error) {
	offset := (page - 1) * pageSize
	messages, total, err := s.messageRepo.ListInbox(ctx, identity.ID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	if err := s.messageRepo.MarkInboxRead(ctx, identity.ID); err != nil {
		return nil, 0, err
	}
	if err := s.notifier.ResetUnread(ctx, identity.ID); err != nil {
		log.Printf("WARN: failed to reset unread counter for %s: %v", identity.ID, err)
	}
	return messages, total, nil
}

func (s *MessageService) Outbox(ctx context.Context, identity model.Identity, page, pageSize int) ([]model.Message, int, error) {
	offset := (page - 1) * pageSize
	return s.messageRepo.ListOutbox(ctx, identity.ID, pageSize, offset)
}

// Get returns a single message. Only the sender and the recipient may read it.
func (s *MessageService) Get(ctx context.Context, identity model.Identity, id string) (*model.Message, error) {
	message, err := s.messageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if message.FromUserID != identity.ID && message.ToUserID != identity.ID && !identity.IsAdmin {
		return nil, common.ErrForbidden
	}
	return message, nil
}

// UnreadCount reads the Redis counter, falling back to a store count when the
// counter is cold (e.g. after a Redis restart).
func (s *MessageService) UnreadCount(ctx context.Context, identity model.Identity) (*UnreadCountResponse, error) {
	count, ok, err := s.notifier.UnreadCount(ctx, identity.ID)
	if err == nil && ok {
		return &UnreadCountResponse{UnreadCount: count}, nil
	}
	if err != nil {
		log.Printf("WARN: unread counter read failed for %s, falling back to store: %v", identity.ID, err)
	}

	stored, err := s.messageRepo.CountUnread(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	return &UnreadCountResponse{UnreadCount: int64(stored)}, nil
}
