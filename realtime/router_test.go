package realtime

import (
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRouter_Broadcast_Targets_Only(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(registry, slog.Default())

	alice := &fakeSession{id: uuid.NewString()}
	bob := &fakeSession{id: uuid.NewString()}
	carol := &fakeSession{id: uuid.NewString()}
	registry.Register(alice.id, alice)
	registry.Register(bob.id, bob)
	registry.Register(carol.id, carol)

	// When broadcasting to two of the three connected users
	router.Broadcast([]string{alice.id, bob.id}, "PING", nil)

	// Then the third receives nothing
	req.Equal([]string{"PING"}, alice.received())
	req.Equal([]string{"PING"}, bob.received())
	req.Empty(carol.received())
}

func TestRouter_Broadcast_Skips_Disconnected(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(registry, slog.Default())

	connected := &fakeSession{id: uuid.NewString()}
	registry.Register(connected.id, connected)

	// When one target is not connected at all
	router.Broadcast([]string{connected.id, uuid.NewString()}, "PING", nil)

	// Then delivery to the connected one still happened
	req.Equal([]string{"PING"}, connected.received())
}

func TestRouter_Failed_Delivery_Does_Not_Abort_Fanout(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(registry, slog.Default())

	broken := &fakeSession{id: uuid.NewString(), fail: true}
	healthy := &fakeSession{id: uuid.NewString()}
	registry.Register(broken.id, broken)
	registry.Register(healthy.id, healthy)

	router.Broadcast([]string{broken.id, healthy.id}, "PING", nil)

	req.Equal([]string{"PING"}, healthy.received())
}

func TestRouter_BroadcastExcept_Excludes_The_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(registry, slog.Default())

	sender := &fakeSession{id: uuid.NewString()}
	other := &fakeSession{id: uuid.NewString()}
	registry.Register(sender.id, sender)
	registry.Register(other.id, other)

	// When the sender is among the targets but excluded
	router.BroadcastExcept([]string{sender.id, other.id}, sender, "TYPING", nil)

	// Then only the other member hears about it
	req.Empty(sender.received())
	req.Equal([]string{"TYPING"}, other.received())
}

func TestRouter_BroadcastAll_Reaches_Everyone(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	router := NewRouter(registry, slog.Default())

	alice := &fakeSession{id: uuid.NewString()}
	bob := &fakeSession{id: uuid.NewString()}
	registry.Register(alice.id, alice)
	registry.Register(bob.id, bob)

	router.BroadcastAll("ONLINE", []string{alice.id})

	req.Equal([]string{"ONLINE"}, alice.received())
	req.Equal([]string{"ONLINE"}, bob.received())
}
