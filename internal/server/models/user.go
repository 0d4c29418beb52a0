package models

import "time"

// User is an identity record. PasswordHash holds a bcrypt digest with its
// salt and cost embedded; the plaintext password is never stored.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
