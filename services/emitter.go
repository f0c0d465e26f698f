package services

// Emitter pushes realtime events to connected users. Satisfied by the
// fanout router; REST mutations use it to notify affected clients.
type Emitter interface {
	Broadcast(targets []string, event string, payload any)
}
