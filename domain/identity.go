package domain

// UserIdentity is the resolved identity attached to a realtime connection
// at handshake time. Immutable for the lifetime of the connection.
type UserIdentity struct {
	ID   string
	Name string
}
