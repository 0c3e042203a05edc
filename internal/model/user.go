package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Users are created by registration and never change afterwards.
// Username is unique and case-sensitive; PasswordHash is a bcrypt hash.
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
