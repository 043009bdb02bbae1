package account

import "time"

// DefaultAvatar is assigned to new accounts until they upload their own.
const DefaultAvatar = "/assets/images/avatar.png"

// Account represents a StoreIt user.
type Account struct {
	ID        string
	FullName  string
	Email     string
	Avatar    string
	CreatedAt time.Time
}
