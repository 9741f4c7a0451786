package models

import "time"

// Identity is a registered user. PasswordHash is a bcrypt digest; the
// plaintext password is never stored.
type Identity struct {
	ID           string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
