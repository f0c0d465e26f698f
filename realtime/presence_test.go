package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPresence_Mark_And_Snapshot(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	alice := uuid.NewString()
	bob := uuid.NewString()

	// Given nobody is online
	req.Empty(presence.Snapshot())

	// When two users join
	presence.MarkOnline(alice)
	presence.MarkOnline(bob)

	// Then both appear in the snapshot
	snapshot := presence.Snapshot()
	req.Len(snapshot, 2)
	req.Contains(snapshot, alice)
	req.Contains(snapshot, bob)
}

func TestPresence_MarkOffline_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	alice := uuid.NewString()

	presence.MarkOnline(alice)
	presence.MarkOffline(alice)

	// A second leave must be a no-op
	presence.MarkOffline(alice)
	req.Empty(presence.Snapshot())
}

func TestPresence_Double_Join_Counts_Once(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	alice := uuid.NewString()

	presence.MarkOnline(alice)
	presence.MarkOnline(alice)

	req.Len(presence.Snapshot(), 1)
}
