package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"chat-hub/auth"
	"chat-hub/errors"
	"chat-hub/repositories"
	"chat-hub/storage"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	targets []string
	event   string
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) Broadcast(targets []string, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{targets: targets, event: event})
}

func (f *fakeEmitter) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo.Map(f.events, func(e emitted, _ int) string { return e.event })
}

type fixture struct {
	users    repositories.IUserRepository
	chats    repositories.IChatRepository
	requests repositories.IRequestRepository
	messages repositories.MessageRepository
	files    *storage.FileStore
	tokens   auth.TokenManager
	emitter  *fakeEmitter
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { db.Close() })

	index, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { index.Close() })

	files, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080", slog.Default())
	req.NoError(err)

	return fixture{
		users:    repositories.NewUserRepository(db, index),
		chats:    repositories.NewChatRepository(db),
		requests: repositories.NewRequestRepository(db),
		messages: repositories.NewMessageRepository(db, slog.Default(), lo.ToPtr(messagesPerPage)),
		files:    files,
		tokens:   auth.NewTokenManager("test-secret", time.Hour),
		emitter:  &fakeEmitter{},
	}
}

func (f fixture) userService() IUserService {
	return NewUserService(f.users, f.chats, f.requests, f.files, f.tokens, f.emitter, slog.Default())
}

func (f fixture) register(t *testing.T, service IUserService, name, username string) UserView {
	t.Helper()
	user, token, err := service.Register(auth.RegisterRequest{
		Name:     name,
		Username: username,
		Password: "Str0ng-enough!",
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return user
}

func TestUserService_Register_And_Login(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.userService()

	// When a user registers
	user := f.register(t, service, "Alice Doe", "alice42")
	req.Equal("Alice Doe", user.Name)

	// Then login with the right password succeeds
	logged, token, err := service.Login("alice42", "Str0ng-enough!")
	req.NoError(err)
	req.Equal(user.ID, logged.ID)

	claims, err := f.tokens.Validate(token)
	req.NoError(err)
	req.Equal(user.ID, claims.UserID)

	// And a wrong password is rejected without detail
	_, _, err = service.Login("alice42", "nope")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestUserService_Register_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.userService()

	f.register(t, service, "Alice", "alice42")

	_, _, err := service.Register(auth.RegisterRequest{
		Name:     "Other Alice",
		Username: "alice42",
		Password: "Str0ng-enough!",
	}, nil)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserService_Register_Weak_Password(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.userService()

	_, _, err := service.Register(auth.RegisterRequest{
		Name:     "Alice",
		Username: "alice42",
		Password: "weakpassword",
	}, nil)
	req.ErrorIs(err, errors.ErrValidation)
}

func TestUserService_Friend_Request_Flow(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.userService()

	alice := f.register(t, service, "Alice", "alice42")
	bob := f.register(t, service, "Bob", "bob42")

	// When alice sends a friend request
	req.NoError(service.SendFriendRequest(alice.ID, bob.ID))
	req.Contains(f.emitter.names(), "NEW_REQUEST")

	// Then a duplicate is refused, in either direction
	req.ErrorIs(service.SendFriendRequest(alice.ID, bob.ID), errors.ErrValidation)
	req.ErrorIs(service.SendFriendRequest(bob.ID, alice.ID), errors.ErrValidation)

	// And bob sees the notification
	notifications, err := service.Notifications(bob.ID)
	req.NoError(err)
	req.Len(notifications, 1)
	req.Equal("Alice", notifications[0].Sender.Name)

	// When bob accepts
	req.NoError(service.AcceptFriendRequest(bob.ID, notifications[0].ID, true))
	req.Contains(f.emitter.names(), "REFETCH_CHATS")

	// Then the direct chat exists and they are friends
	chats, err := f.chats.ChatsByMember(alice.ID)
	req.NoError(err)
	req.Len(chats, 1)
	req.False(chats[0].GroupChat)
	req.ElementsMatch([]string{alice.ID, bob.ID}, chats[0].Members)

	friends, err := service.Friends(alice.ID, "")
	req.NoError(err)
	req.Len(friends, 1)
	req.Equal(bob.ID, friends[0].ID)

	// And the notification is gone
	notifications, err = service.Notifications(bob.ID)
	req.NoError(err)
	req.Empty(notifications)
}

func TestUserService_Accept_Is_Receiver_Scoped(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.userService()

	alice := f.register(t, service, "Alice", "alice42")
	bob := f.register(t, service, "Bob", "bob42")

	req.NoError(service.SendFriendRequest(alice.ID, bob.ID))
	notifications, err := service.Notifications(bob.ID)
	req.NoError(err)

	// The sender cannot accept their own request
	err = service.AcceptFriendRequest(alice.ID, notifications[0].ID, true)
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestUserService_Search_Excludes_Self_And_Friends(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	service := f.userService()

	alice := f.register(t, service, "Alice", "alice42")
	bob := f.register(t, service, "Bob", "bob42")
	clara := f.register(t, service, "Clara", "clara42")

	// Given alice and bob are already friends
	req.NoError(service.SendFriendRequest(alice.ID, bob.ID))
	notifications, err := service.Notifications(bob.ID)
	req.NoError(err)
	req.NoError(service.AcceptFriendRequest(bob.ID, notifications[0].ID, true))

	// When alice searches with an empty query
	found, err := service.Search(context.Background(), alice.ID, "")
	req.NoError(err)

	// Then only clara shows up
	req.Len(found, 1)
	req.Equal(clara.ID, found[0].ID)
}
