package realtime

import (
	"sync"
	"testing"

	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id   string
	name string
	fail bool

	mu       sync.Mutex
	events   []string
	payloads []any
}

func (s *fakeSession) Send(event string, payload any) error {
	if s.fail {
		return errors.ErrSendBufferFull
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *fakeSession) Identity() domain.UserIdentity {
	return domain.UserIdentity{ID: s.id, Name: s.name}
}

func (s *fakeSession) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type fakeStore struct {
	mu     sync.Mutex
	stored []repositories.DiskMessage
	err    error
}

func (f *fakeStore) StoreMessage(message repositories.DiskMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, message)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

func TestRegistry_Register_Resolve(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	sink := &fakeSession{id: userID}

	// Given nobody is connected
	req.Zero(registry.Count())

	// When a user registers
	registry.Register(userID, sink)

	// Then the handle resolves
	req.Equal(1, registry.Count())
	sinks := registry.Resolve([]string{userID})
	req.Len(sinks, 1)
	req.Same(sink, sinks[0].(*fakeSession))
}

func TestRegistry_Resolve_Omits_Absent_IDs(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connected := uuid.NewString()
	registry.Register(connected, &fakeSession{id: connected})

	// When resolving a mix of connected and unknown users
	sinks := registry.Resolve([]string{connected, uuid.NewString(), uuid.NewString()})

	// Then only the connected handle comes back, without error
	req.Len(sinks, 1)
}

func TestRegistry_Register_Last_Connection_Wins(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	first := &fakeSession{id: userID}
	second := &fakeSession{id: userID}

	// When the same user registers twice
	registry.Register(userID, first)
	registry.Register(userID, second)

	// Then only the newer handle remains
	req.Equal(1, registry.Count())
	sinks := registry.Resolve([]string{userID})
	req.Same(second, sinks[0].(*fakeSession))
}

func TestRegistry_Unregister_Is_Guarded(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	userID := uuid.NewString()
	stale := &fakeSession{id: userID}
	fresh := &fakeSession{id: userID}

	// Given a reconnect happened before the old connection's disconnect
	registry.Register(userID, stale)
	registry.Register(userID, fresh)

	// When the stale disconnect fires
	registry.Unregister(userID, stale)

	// Then the fresh connection is still registered
	sinks := registry.Resolve([]string{userID})
	req.Len(sinks, 1)
	req.Same(fresh, sinks[0].(*fakeSession))

	// And the matching disconnect removes it
	registry.Unregister(userID, fresh)
	req.Empty(registry.Resolve([]string{userID}))
}

func TestRegistry_All_Snapshots_Every_Handle(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	registry.Register(uuid.NewString(), &fakeSession{})
	registry.Register(uuid.NewString(), &fakeSession{})
	registry.Register(uuid.NewString(), &fakeSession{})

	req.Len(registry.All(), 3)
}
