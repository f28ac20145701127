package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"sharebnb/internal/app/service"
	"sharebnb/internal/common"
	"sharebnb/internal/domain/model"
)

func newMessageFixture() (*service.MessageService, *fakeMessageRepo, *fakeUserRepo, *fakeNotifier) {
	messageRepo := newFakeMessageRepo()
	userRepo := newFakeUserRepo()
	notifier := newFakeNotifier()
	svc := service.NewMessageService(messageRepo, userRepo, notifier)
	return svc, messageRepo, userRepo, notifier
}

func seedUsers(userRepo *fakeUserRepo) (alice, bob model.Identity) {
	userRepo.users["alice"] = &model.User{ID: "u1", Username: "alice", Email: "alice@example.com"}
	userRepo.users["bob"] = &model.User{ID: "u2", Username: "bob", Email: "bob@example.com"}
	return model.Identity{ID: "u1", Username: "alice"}, model.Identity{ID: "u2", Username: "bob"}
}

func TestSendMessage(t *testing.T) {
	svc, repo, userRepo, notifier := newMessageFixture()
	alice, _ := seedUsers(userRepo)

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := svc.Send(context.Background(), alice, service.SendMessageRequest{ToUsername: "bob"})
		require.ErrorIs(t, err, common.ErrBadRequest)
	})

	t.Run("text too long rejected", func(t *testing.T) {
		_, err := svc.Send(context.Background(), alice, service.SendMessageRequest{
			ToUsername: "bob",
			Text:       strings.Repeat("x", model.MaxMessageTextLength+1),
		})
		require.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		_, err := svc.Send(context.Background(), alice, service.SendMessageRequest{
			ToUsername: "nobody",
			Text:       "hello",
		})
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("self message rejected", func(t *testing.T) {
		_, err := svc.Send(context.Background(), alice, service.SendMessageRequest{
			ToUsername: "alice",
			Text:       "hello me",
		})
		require.ErrorIs(t, err, common.ErrBadRequest)
	})

	t.Run("success persists and notifies", func(t *testing.T) {
		message, err := svc.Send(context.Background(), alice, service.SendMessageRequest{
			ToUsername: "bob",
			Text:       "is the treehouse available?",
		})
		require.NoError(t, err)
		require.Equal(t, "u1", message.FromUserID)
		require.Equal(t, "u2", message.ToUserID)

		_, ok := repo.messages[message.ID]
		require.True(t, ok)

		require.Len(t, notifier.events, 1)
		require.Equal(t, message.ID, notifier.events[0].MessageID)
		require.Equal(t, "u2", notifier.events[0].ToUserID)
	})
}

func TestInboxMarksReadAndResetsCounter(t *testing.T) {
	svc, repo, userRepo, notifier := newMessageFixture()
	alice, bob := seedUsers(userRepo)

	_, err := svc.Send(context.Background(), alice, service.SendMessageRequest{
		ToUsername: "bob", Text: "hello",
	})
	require.NoError(t, err)

	notifier.hasKeys = true
	notifier.unread["u2"] = 1

	messages, total, err := svc.Inbox(context.Background(), bob, 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, messages, 1)

	for _, m := range repo.messages {
		require.True(t, m.Read)
	}
	require.Zero(t, notifier.unread["u2"])
}

func TestGetMessageAuthorization(t *testing.T) {
	svc, _, userRepo, _ := newMessageFixture()
	alice, bob := seedUsers(userRepo)

	message, err := svc.Send(context.Background(), alice, service.SendMessageRequest{
		ToUsername: "bob", Text: "hello",
	})
	require.NoError(t, err)

	t.Run("sender may read", func(t *testing.T) {
		got, err := svc.Get(context.Background(), alice, message.ID)
		require.NoError(t, err)
		require.Equal(t, message.ID, got.ID)
	})

	t.Run("recipient may read", func(t *testing.T) {
		_, err := svc.Get(context.Background(), bob, message.ID)
		require.NoError(t, err)
	})

	t.Run("third party is forbidden", func(t *testing.T) {
		_, err := svc.Get(context.Background(), model.Identity{ID: "u3"}, message.ID)
		require.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("admin may read", func(t *testing.T) {
		_, err := svc.Get(context.Background(), model.Identity{ID: "u3", IsAdmin: true}, message.ID)
		require.NoError(t, err)
	})
}

func TestUnreadCount(t *testing.T) {
	svc, _, userRepo, notifier := newMessageFixture()
	alice, bob := seedUsers(userRepo)

	_, err := svc.Send(context.Background(), alice, service.SendMessageRequest{
		ToUsername: "bob", Text: "one",
	})
	require.NoError(t, err)

	t.Run("falls back to store when counter is cold", func(t *testing.T) {
		notifier.hasKeys = false
		resp, err := svc.UnreadCount(context.Background(), bob)
		require.NoError(t, err)
		require.EqualValues(t, 1, resp.UnreadCount)
	})

	t.Run("reads counter when warm", func(t *testing.T) {
		notifier.hasKeys = true
		notifier.unread["u2"] = 7
		resp, err := svc.UnreadCount(context.Background(), bob)
		require.NoError(t, err)
		require.EqualValues(t, 7, resp.UnreadCount)
	})
}
