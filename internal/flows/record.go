package flows

import "time"

// UserRecord is the flow-local view of an account. The root package converts
// to and from its public User type; keeping a local copy here avoids an
// import cycle with the root.
type UserRecord struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         uint8
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
