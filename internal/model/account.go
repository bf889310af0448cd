package model

import "time"

// MaxCharactersPerAccount caps how many characters a single account may own.
const MaxCharactersPerAccount = 5

// Account is a login identity. Password storage is the adaptive, salted hash
// produced by internal/db (bcrypt) — this type never carries a plaintext
// password.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    time.Time
}
